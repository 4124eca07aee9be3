package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is the one-sided amplitude spectrum of a signal. Freqs are in Hz.
type Spectrum struct {
	Freqs     []float64
	Amplitude []float64
}

// NewSpectrum transforms data sampled every dt seconds. The mean is removed
// first so the DC bin does not swamp the rest.
func NewSpectrum(data []float64, dt float64) Spectrum {
	n := len(data)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)
	s := Spectrum{
		Freqs:     make([]float64, len(coeffs)),
		Amplitude: make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		s.Freqs[i] = fft.Freq(i) / dt
		s.Amplitude[i] = 2 * cmplx.Abs(c) / float64(n)
	}
	return s
}

// Dominant is the strongest non-DC component.
func (s Spectrum) Dominant() (freq, amplitude float64) {
	for i := 1; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > amplitude {
			freq, amplitude = s.Freqs[i], s.Amplitude[i]
		}
	}
	return freq, amplitude
}
