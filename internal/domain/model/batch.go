package model

import (
	"fmt"
	"math"
)

// Channel identifies one physical sensor axis of a motor.
type Channel int

const (
	VibrationX Channel = iota
	VibrationY
	VibrationZ
	MagneticX
	MagneticY
	MagneticZ

	ChannelCount = 6
)

// Channels lists every channel in canonical column order.
var Channels = [ChannelCount]Channel{VibrationX, VibrationY, VibrationZ, MagneticX, MagneticY, MagneticZ}

var channelHeaders = [ChannelCount]string{
	"Vibration X (mm/s)",
	"Vibration Y (mm/s)",
	"Vibration Z (mm/s)",
	"MLX90393 X (mT)",
	"MLX90393 Y (mT)",
	"MLX90393 Z (mT)",
}

// String returns the canonical column header of the channel.
func (c Channel) String() string {
	if c < 0 || int(c) >= ChannelCount {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelHeaders[c]
}

// IsVibration reports whether the channel belongs to the vibration group.
func (c Channel) IsVibration() bool {
	return c <= VibrationZ
}

// Axis returns "X", "Y" or "Z".
func (c Channel) Axis() string {
	return [...]string{"X", "Y", "Z"}[int(c)%3]
}

// Batch is one inference unit of six-channel samples. A nil series means the
// channel was absent from the source.
type Batch struct {
	Series [ChannelCount][]float64
}

// Has reports whether the source supplied the channel.
func (b Batch) Has(c Channel) bool {
	return b.Series[c] != nil
}

// Len returns the number of rows.
func (b Batch) Len() int {
	for _, s := range b.Series {
		if s != nil {
			return len(s)
		}
	}
	return 0
}

// Missing returns the channels absent from the source.
func (b Batch) Missing() []Channel {
	var missing []Channel
	for _, c := range Channels {
		if !b.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Validate checks that every present series has the same length.
func (b Batch) Validate() error {
	n := -1
	for _, c := range Channels {
		if !b.Has(c) {
			continue
		}
		if n < 0 {
			n = len(b.Series[c])
			continue
		}
		if len(b.Series[c]) != n {
			return fmt.Errorf("%w: channel %q has %d rows, expected %d", ErrMalformedInput, c, len(b.Series[c]), n)
		}
	}
	return nil
}

// Clean drops every row holding a NaN in any present channel.
func (b Batch) Clean() Batch {
	n := b.Len()
	var out Batch
	for _, c := range Channels {
		if b.Has(c) {
			out.Series[c] = make([]float64, 0, n)
		}
	}

	for i := 0; i < n; i++ {
		complete := true
		for _, c := range Channels {
			if b.Has(c) && math.IsNaN(b.Series[c][i]) {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for _, c := range Channels {
			if b.Has(c) {
				out.Series[c] = append(out.Series[c], b.Series[c][i])
			}
		}
	}

	return out
}

// Filled returns every series, absent channels synthesized as zeros.
func (b Batch) Filled() [ChannelCount][]float64 {
	var out [ChannelCount][]float64
	n := b.Len()
	for _, c := range Channels {
		if b.Has(c) {
			out[c] = b.Series[c]
		} else {
			out[c] = make([]float64, n)
		}
	}
	return out
}
