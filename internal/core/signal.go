package core

import (
	"math"
	"math/cmplx"
	"motor_service/internal/domain/model"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// welchSegment is the longest segment used by the averaged periodogram.
const welchSegment = 256

// RMS returns the root mean square of x. NaN values must be removed by the caller.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 2) / math.Sqrt(float64(len(x)))
}

// PeakToPeak returns max(x) - min(x).
func PeakToPeak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x) - floats.Min(x)
}

// SpectralPeak removes the mean of x and returns the frequency and magnitude
// of the largest bin of its real DFT. The first bin wins ties.
func SpectralPeak(x []float64, sampleRate float64) (frequency, magnitude float64) {
	y := demean(x)
	switch len(y) {
	case 0:
		return 0, 0
	case 1:
		return 0, math.Abs(y[0])
	}

	fft := fourier.NewFFT(len(y))
	coeff := fft.Coefficients(nil, y)

	best := 0
	magnitude = cmplx.Abs(coeff[0])
	for i := 1; i < len(coeff); i++ {
		if m := cmplx.Abs(coeff[i]); m > magnitude {
			best, magnitude = i, m
		}
	}

	return fft.Freq(best) * sampleRate, magnitude
}

// PowerSpectralDensity estimates the one-sided PSD of x with Welch's method:
// mean removal, periodic Hann segments of min(256, len(x)) samples with half
// overlap, per-segment detrending and density scaling.
func PowerSpectralDensity(x []float64, sampleRate float64) model.Spectrum {
	y := demean(x)
	n := len(y)
	switch n {
	case 0:
		return model.Spectrum{Frequency: []float64{}, Power: []float64{}}
	case 1:
		return model.Spectrum{Frequency: []float64{0}, Power: []float64{0}}
	}

	size := min(welchSegment, n)
	step := size - size/2
	win := hann(size)
	scale := 1 / (sampleRate * floats.Dot(win, win))

	fft := fourier.NewFFT(size)
	bins := size/2 + 1
	power := make([]float64, bins)
	seg := make([]float64, size)
	coeff := make([]complex128, bins)

	segments := 0
	for start := 0; start+size <= n; start += step {
		copy(seg, y[start:start+size])
		floats.AddConst(-stat.Mean(seg, nil), seg)
		floats.Mul(seg, win)
		coeff = fft.Coefficients(coeff, seg)
		for i, c := range coeff {
			power[i] += real(c)*real(c) + imag(c)*imag(c)
		}
		segments++
	}

	frequency := make([]float64, bins)
	for i := range power {
		power[i] *= scale / float64(segments)
		// DC and, for even segments, Nyquist are not mirrored.
		if i > 0 && (size%2 == 1 || i < bins-1) {
			power[i] *= 2
		}
		frequency[i] = fft.Freq(i) * sampleRate
	}

	return model.Spectrum{Frequency: frequency, Power: power}
}

func demean(x []float64) []float64 {
	y := make([]float64, len(x))
	if len(x) == 0 {
		return y
	}
	copy(y, x)
	floats.AddConst(-stat.Mean(y, nil), y)
	return y
}

// hann returns a periodic Hann window, the variant used for spectral analysis.
func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
