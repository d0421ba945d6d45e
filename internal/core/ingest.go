package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"motor_service/internal/domain/model"
	"strconv"
	"strings"
)

// missingTokens are cell values read as a missing sample.
var missingTokens = map[string]struct{}{
	"": {}, "nan": {}, "na": {}, "n/a": {}, "null": {}, "none": {}, "-": {},
}

// ChannelForHeader resolves a column header to a channel. Both the sensor
// export spelling ("Vibration X (mm/s)") and the normalised training spelling
// ("Vibration_X_mm/s") are accepted, case-insensitively.
func ChannelForHeader(header string) (model.Channel, bool) {
	h := normalizeHeader(header)
	for _, c := range model.Channels {
		if strings.EqualFold(h, normalizeHeader(c.String())) {
			return c, true
		}
	}
	return 0, false
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "(", "")
	return strings.ReplaceAll(h, ")", "")
}

// ParseCSV reads a sensor export. Columns that are not sensor channels are
// ignored, missing cells become NaN and more than maxRows data rows is
// rejected. maxRows <= 0 means no limit.
func ParseCSV(r io.Reader, maxRows int) (model.Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return model.Batch{}, fmt.Errorf("%w: empty file", model.ErrMalformedInput)
	}
	if err != nil {
		return model.Batch{}, fmt.Errorf("%w: failed to read header: %v", model.ErrMalformedInput, err)
	}

	columns := make(map[model.Channel]int, model.ChannelCount)
	for i, h := range header {
		if c, ok := ChannelForHeader(h); ok {
			if _, dup := columns[c]; !dup {
				columns[c] = i
			}
		}
	}
	if len(columns) == 0 {
		return model.Batch{}, fmt.Errorf("%w: no sensor channel columns in header %q", model.ErrMalformedInput, strings.Join(header, ","))
	}

	var batch model.Batch
	for c := range columns {
		batch.Series[c] = []float64{}
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Batch{}, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
		}
		if maxRows > 0 && row > maxRows {
			return model.Batch{}, fmt.Errorf("%w: batch exceeds %d rows", model.ErrMalformedInput, maxRows)
		}

		for c, idx := range columns {
			v := math.NaN()
			if idx < len(record) {
				v, err = parseSample(record[idx])
				if err != nil {
					return model.Batch{}, fmt.Errorf("%w: row %d column %q: %v", model.ErrMalformedInput, row, c, err)
				}
			}
			batch.Series[c] = append(batch.Series[c], v)
		}
	}

	return batch, nil
}

// parseSample parses one cell, returning NaN for a missing value.
func parseSample(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if _, missing := missingTokens[strings.ToLower(cell)]; missing {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", cell)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("non-finite number %q", cell)
	}
	return v, nil
}
