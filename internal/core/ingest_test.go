package core

import (
	"math"
	"motor_service/internal/domain/model"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sensorHeader = "Timestamp,Vibration X (mm/s),Vibration Y (mm/s),Vibration Z (mm/s),MLX90393 X (mT),MLX90393 Y (mT),MLX90393 Z (mT)\n"

func TestChannelForHeader(t *testing.T) {
	tests := []struct {
		header string
		want   model.Channel
		ok     bool
	}{
		{"Vibration X (mm/s)", model.VibrationX, true},
		{"Vibration_Y_mm/s", model.VibrationY, true},
		{"  vibration z (MM/S) ", model.VibrationZ, true},
		{"MLX90393 X (mT)", model.MagneticX, true},
		{"MLX90393_Z_mT", model.MagneticZ, true},
		{"\ufeffVibration X (mm/s)", model.VibrationX, true},
		{"Temperature", 0, false},
		{"Vibration X", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			c, ok := ChannelForHeader(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, c)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	input := sensorHeader +
		"0,1.5,2,3,40,50,60\n" +
		"1,-1.5,2.5,3.5,41,51,61\n"

	batch, err := ParseCSV(strings.NewReader(input), 0)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len())
	assert.Empty(t, batch.Missing())
	assert.Equal(t, []float64{1.5, -1.5}, batch.Series[model.VibrationX])
	assert.Equal(t, []float64{60, 61}, batch.Series[model.MagneticZ])
}

func TestParseCSVMissingValues(t *testing.T) {
	input := sensorHeader +
		"0,1,2,3,4,5,6\n" +
		"1,,2,3,nan,5,6\n" +
		"2,1,2,3,4,5\n"

	batch, err := ParseCSV(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Equal(t, 3, batch.Len())

	assert.True(t, math.IsNaN(batch.Series[model.VibrationX][1]))
	assert.True(t, math.IsNaN(batch.Series[model.MagneticX][1]))
	assert.True(t, math.IsNaN(batch.Series[model.MagneticZ][2]))
	assert.Equal(t, 1, batch.Clean().Len())
}

func TestParseCSVMissingColumns(t *testing.T) {
	input := "Vibration_X_mm/s,MLX90393_X_mT\n1,2\n3,4\n"

	batch, err := ParseCSV(strings.NewReader(input), 0)
	require.NoError(t, err)

	assert.True(t, batch.Has(model.VibrationX))
	assert.True(t, batch.Has(model.MagneticX))
	assert.Len(t, batch.Missing(), 4)
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		maxRows int
		wantErr string
	}{
		{"empty file", "", 0, "empty file"},
		{"no sensor columns", "a,b\n1,2\n", 0, "no sensor channel columns"},
		{"bad number", sensorHeader + "0,1,2,x,4,5,6\n", 0, `row 1 column "Vibration Z (mm/s)"`},
		{"infinite number", sensorHeader + "0,1,2,inf,4,5,6\n", 0, `row 1 column "Vibration Z (mm/s)": non-finite number "inf"`},
		{"negative infinity", sensorHeader + "0,1,2,-Infinity,4,5,6\n", 0, "non-finite number"},
		{"too many rows", sensorHeader + "0,1,2,3,4,5,6\n1,1,2,3,4,5,6\n", 1, "exceeds 1 rows"},
		{"broken quoting", sensorHeader + "0,\"1,2,3,4,5,6\n", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input), tt.maxRows)
			require.ErrorIs(t, err, model.ErrMalformedInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	batch, err := ParseCSV(strings.NewReader(sensorHeader), 0)
	require.NoError(t, err)
	assert.Zero(t, batch.Len())
	assert.Empty(t, batch.Missing())
}
