// Package cosmo provides the data exchanged with the inflation analysis model.
package cosmo

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned by Validate when a required field is absent.
var ErrMissingField = errors.New("missing required field")

// CalculationStatus drives what the interface renders.
type CalculationStatus int

const (
	StatusIdle CalculationStatus = iota
	StatusDeriving
	StatusCalculating // Reserved, no transition reaches it
	StatusSuccess
	StatusError
)

// String returns the display label for the status.
func (s CalculationStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDeriving:
		return "deriving"
	case StatusCalculating:
		return "calculating"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ObservableResult holds the CMB observables predicted by a theory.
type ObservableResult struct {
	Ns     float64  `json:"ns" yaml:"ns"`                               // Scalar spectral index
	R      float64  `json:"r" yaml:"r"`                                 // Tensor-to-scalar ratio
	As     float64  `json:"As" yaml:"As"`                               // Scalar amplitude
	Nt     *float64 `json:"nt,omitempty" yaml:"nt,omitempty"`           // Tensor spectral index
	AlphaS *float64 `json:"alpha_s,omitempty" yaml:"alpha_s,omitempty"` // Running of the scalar index
}

// SpectrumPoint is one sampled wavenumber of the primordial power spectra.
type SpectrumPoint struct {
	K      float64 `json:"k" yaml:"k"`
	Scalar float64 `json:"scalar" yaml:"scalar"`
	Tensor float64 `json:"tensor" yaml:"tensor"`
}

// DerivationStep is one step of the slow-roll derivation.
type DerivationStep struct {
	Title    string `json:"title" yaml:"title"`
	Content  string `json:"content" yaml:"content"`
	Equation string `json:"equation,omitempty" yaml:"equation,omitempty"`
}

// CalculationResponse is the full reply for one analysis request.
type CalculationResponse struct {
	TheoryName      string           `json:"theoryName" yaml:"theory_name"`
	PotentialForm   string           `json:"potentialForm" yaml:"potential_form"`
	DerivationSteps []DerivationStep `json:"derivationSteps" yaml:"derivation_steps"`
	Observables     ObservableResult `json:"observables" yaml:"observables"`
	SpectrumData    []SpectrumPoint  `json:"spectrumData" yaml:"spectrum_data"`
	Interpretation  string           `json:"interpretation" yaml:"interpretation"`
}
