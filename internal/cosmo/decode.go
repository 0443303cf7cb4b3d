package cosmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// wire mirrors CalculationResponse with pointers so absent required
// fields can be told apart from zero values.
type wire struct {
	TheoryName      *string          `json:"theoryName"`
	PotentialForm   string           `json:"potentialForm"`
	DerivationSteps []DerivationStep `json:"derivationSteps"`
	Observables     *struct {
		Ns     *float64 `json:"ns"`
		R      *float64 `json:"r"`
		As     *float64 `json:"As"`
		Nt     *float64 `json:"nt"`
		AlphaS *float64 `json:"alpha_s"`
	} `json:"observables"`
	SpectrumData   []SpectrumPoint `json:"spectrumData"`
	Interpretation string          `json:"interpretation"`
}

// Decode parses a model reply into a CalculationResponse.
// Markdown code fences around the JSON document are tolerated.
func Decode(data []byte) (*CalculationResponse, error) {
	data = stripFence(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decoding response: empty document")
	}

	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch {
	case w.TheoryName == nil:
		return nil, fmt.Errorf("%w: theoryName", ErrMissingField)
	case w.Observables == nil:
		return nil, fmt.Errorf("%w: observables", ErrMissingField)
	case w.Observables.Ns == nil:
		return nil, fmt.Errorf("%w: observables.ns", ErrMissingField)
	case w.Observables.R == nil:
		return nil, fmt.Errorf("%w: observables.r", ErrMissingField)
	case w.Observables.As == nil:
		return nil, fmt.Errorf("%w: observables.As", ErrMissingField)
	case w.SpectrumData == nil:
		return nil, fmt.Errorf("%w: spectrumData", ErrMissingField)
	case w.DerivationSteps == nil:
		return nil, fmt.Errorf("%w: derivationSteps", ErrMissingField)
	}

	return &CalculationResponse{
		TheoryName:      *w.TheoryName,
		PotentialForm:   w.PotentialForm,
		DerivationSteps: w.DerivationSteps,
		Observables: ObservableResult{
			Ns:     *w.Observables.Ns,
			R:      *w.Observables.R,
			As:     *w.Observables.As,
			Nt:     w.Observables.Nt,
			AlphaS: w.Observables.AlphaS,
		},
		SpectrumData:   w.SpectrumData,
		Interpretation: w.Interpretation,
	}, nil
}

func stripFence(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	s := strings.TrimPrefix(string(data), "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
