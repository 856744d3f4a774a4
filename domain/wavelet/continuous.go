package wavelet

import (
	"fmt"
	"math"

	"wavelytics/domain/core"
)

// ContinuousBasis describes a mother wavelet usable by the continuous and
// cross-wavelet engines. Implementations are immutable.
type ContinuousBasis interface {
	// Name identifies the wavelet, e.g. "morlet".
	Name() string
	// PsiHat evaluates the Fourier transform of the normalized mother wavelet
	// at angular frequency w (for unit scale).
	PsiHat(w float64) float64
	// FourierFactor converts a scale into the equivalent Fourier period.
	FourierFactor() float64
	// CoiEFolding is the e-folding time factor used to build the cone of
	// influence, expressed as a multiple of the Fourier factor.
	CoiEFolding() float64
}

// Morlet is the complex Morlet wavelet with center frequency Omega0.
// Omega0 = 6 is the conventional choice for admissibility.
type Morlet struct {
	Omega0 float64
}

// NewMorlet returns the default Morlet wavelet (omega0 = 6).
func NewMorlet() Morlet {
	return Morlet{Omega0: 6}
}

// Name returns "morlet".
func (m Morlet) Name() string {
	return "morlet"
}

// PsiHat evaluates the Morlet spectrum at angular frequency w. The Morlet
// wavelet is analytic: the spectrum vanishes for non-positive frequencies.
func (m Morlet) PsiHat(w float64) float64 {
	if w <= 0 {
		return 0
	}
	d := w - m.Omega0
	return math.Pow(math.Pi, -0.25) * math.Exp(-d*d/2)
}

// FourierFactor returns 4*pi / (omega0 + sqrt(2 + omega0^2)), the
// scale-to-period constant (Torrence & Compo 1998, Table 1).
func (m Morlet) FourierFactor() float64 {
	return 4 * math.Pi / (m.Omega0 + math.Sqrt(2+m.Omega0*m.Omega0))
}

// CoiEFolding returns the e-folding factor 1/sqrt(2) for the Morlet wavelet.
func (m Morlet) CoiEFolding() float64 {
	return 1 / math.Sqrt2
}

// LookupContinuous returns a continuous basis by name.
func LookupContinuous(name string) (ContinuousBasis, error) {
	switch name {
	case "morlet":
		return NewMorlet(), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBasis, name)
	}
}
