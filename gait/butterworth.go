package gait

import (
	"fmt"
	"math"
	"math/cmplx"
)

// biquad is one second-order filter section in direct form II transposed.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// bandpass is a Butterworth band-pass filter realized as a cascade of
// biquad sections. The design is fixed at construction; applying it holds
// no state between calls.
type bandpass struct {
	sections []biquad
}

// newBandpass designs an order-N Butterworth band-pass for the given edge
// frequencies at sampling rate fs: analog prototype poles, low-pass to
// band-pass transform, bilinear transform with prewarped edges, conjugate
// poles paired into biquads. The resulting cascade has 2N poles, N zeros at
// z=1 and N at z=-1, and unit gain at the geometric center of the band.
func newBandpass(order int, lowHz, highHz, fs float64) (*bandpass, error) {
	if order < 1 {
		return nil, fmt.Errorf("filter order must be >= 1, got %d", order)
	}
	if lowHz <= 0 || highHz <= lowHz || highHz >= fs/2 {
		return nil, fmt.Errorf("band edges %.3g-%.3g Hz invalid for fs=%.3g Hz", lowHz, highHz, fs)
	}

	// Prewarp the edges so the bilinear transform lands them exactly.
	k := 2 * fs
	w1 := k * math.Tan(math.Pi*lowHz/fs)
	w2 := k * math.Tan(math.Pi*highHz/fs)
	w0 := math.Sqrt(w1 * w2)
	bw := w2 - w1

	// Butterworth low-pass prototype poles on the unit circle, left half-plane.
	proto := make([]complex128, order)
	for i := 0; i < order; i++ {
		theta := math.Pi * float64(2*i+order+1) / float64(2*order)
		proto[i] = cmplx.Exp(complex(0, theta))
	}

	// Low-pass to band-pass: each prototype pole p yields the two roots of
	// s^2 - p*bw*s + w0^2 = 0, then the bilinear transform maps them to z.
	var zPoles []complex128
	for _, p := range proto {
		pb := p * complex(bw, 0)
		disc := cmplx.Sqrt(pb*pb - complex(4*w0*w0, 0))
		for _, s := range []complex128{(pb + disc) / 2, (pb - disc) / 2} {
			z := (complex(k, 0) + s) / (complex(k, 0) - s)
			zPoles = append(zPoles, z)
		}
	}

	sections, err := pairPoles(zPoles)
	if err != nil {
		return nil, err
	}

	f := &bandpass{sections: sections}

	// Normalize to unit gain at the band center.
	wc := 2 * math.Atan(w0/k)
	mag := cmplx.Abs(f.response(wc))
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return nil, fmt.Errorf("degenerate band-pass response at center frequency")
	}
	g := math.Pow(1/mag, 1/float64(len(sections)))
	for i := range f.sections {
		f.sections[i].b0 *= g
		f.sections[i].b1 *= g
		f.sections[i].b2 *= g
	}
	return f, nil
}

// pairPoles groups z-domain poles into biquad denominators, pairing each
// complex pole with its conjugate (or real poles two at a time), and attaches
// the (z-1)(z+1) band-pass numerator to every section.
func pairPoles(poles []complex128) ([]biquad, error) {
	const tol = 1e-10
	var upper []complex128
	var real_ []float64
	for _, p := range poles {
		switch {
		case imag(p) > tol:
			upper = append(upper, p)
		case imag(p) < -tol:
			// Skip: covered by its conjugate in upper.
		default:
			real_ = append(real_, real(p))
		}
	}
	if len(real_)%2 != 0 {
		return nil, fmt.Errorf("unpaired real pole in band-pass design")
	}

	var sections []biquad
	for _, p := range upper {
		sections = append(sections, biquad{
			b0: 1, b1: 0, b2: -1,
			a1: -2 * real(p),
			a2: real(p)*real(p) + imag(p)*imag(p),
		})
	}
	for i := 0; i+1 < len(real_); i += 2 {
		sections = append(sections, biquad{
			b0: 1, b1: 0, b2: -1,
			a1: -(real_[i] + real_[i+1]),
			a2: real_[i] * real_[i+1],
		})
	}
	return sections, nil
}

// response evaluates the cascade transfer function at digital frequency w
// (radians per sample).
func (f *bandpass) response(w float64) complex128 {
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1
	h := complex(1, 0)
	for _, s := range f.sections {
		num := complex(s.b0, 0) + complex(s.b1, 0)*z1 + complex(s.b2, 0)*z2
		den := complex(1, 0) + complex(s.a1, 0)*z1 + complex(s.a2, 0)*z2
		h *= num / den
	}
	return h
}

// apply runs the cascade forward over x with zero initial state.
func (f *bandpass) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	for _, s := range f.sections {
		var z1, z2 float64
		for i, v := range y {
			out := s.b0*v + z1
			z1 = s.b1*v - s.a1*out + z2
			z2 = s.b2*v - s.a2*out
			y[i] = out
		}
	}
	return y
}

// filtfilt applies the cascade forward and backward for zero phase lag,
// using odd reflection padding at both ends to suppress edge transients.
func (f *bandpass) filtfilt(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	padlen := 3 * (2*len(f.sections) + 1)
	if padlen >= n {
		padlen = n - 1
	}

	ext := make([]float64, 0, n+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-padlen; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	y := f.apply(ext)
	reverse(y)
	y = f.apply(y)
	reverse(y)
	return y[padlen : padlen+n]
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
