package cosmo

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starobinsky = `{
  "theoryName": "Starobinsky",
  "potentialForm": "V = (3/4) M^2 M_p^2 (1 - e^{-sqrt(2/3) phi/M_p})^2",
  "derivationSteps": [{"title": "Potential", "content": "...", "equation": "V(\\phi)"}],
  "observables": {"ns": 0.965, "r": 0.003, "As": 2.1e-9, "nt": null},
  "spectrumData": [{"k": 0.05, "scalar": 2.1e-9, "tensor": 6.3e-12}],
  "interpretation": "Consistent with Planck."
}`

func TestDecode(t *testing.T) {
	got, err := Decode([]byte(starobinsky))
	require.NoError(t, err)

	want := &CalculationResponse{
		TheoryName:      "Starobinsky",
		PotentialForm:   "V = (3/4) M^2 M_p^2 (1 - e^{-sqrt(2/3) phi/M_p})^2",
		DerivationSteps: []DerivationStep{{Title: "Potential", Content: "...", Equation: `V(\phi)`}},
		Observables:     ObservableResult{Ns: 0.965, R: 0.003, As: 2.1e-9},
		SpectrumData:    []SpectrumPoint{{K: 0.05, Scalar: 2.1e-9, Tensor: 6.3e-12}},
		Interpretation:  "Consistent with Planck.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFenced(t *testing.T) {
	got, err := Decode([]byte("```json\n" + starobinsky + "\n```"))
	require.NoError(t, err)
	assert.Equal(t, "Starobinsky", got.TheoryName)
}

func TestDecodeMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{name: "theory name", input: `{"observables":{"ns":1,"r":0,"As":1},"spectrumData":[],"derivationSteps":[]}`, field: "theoryName"},
		{name: "observables", input: `{"theoryName":"x","spectrumData":[],"derivationSteps":[]}`, field: "observables"},
		{name: "ns", input: `{"theoryName":"x","observables":{"r":0,"As":1},"spectrumData":[],"derivationSteps":[]}`, field: "observables.ns"},
		{name: "r", input: `{"theoryName":"x","observables":{"ns":1,"As":1},"spectrumData":[],"derivationSteps":[]}`, field: "observables.r"},
		{name: "As", input: `{"theoryName":"x","observables":{"ns":1,"r":0},"spectrumData":[],"derivationSteps":[]}`, field: "observables.As"},
		{name: "spectrum", input: `{"theoryName":"x","observables":{"ns":1,"r":0,"As":1},"derivationSteps":[]}`, field: "spectrumData"},
		{name: "steps", input: `{"theoryName":"x","observables":{"ns":1,"r":0,"As":1},"spectrumData":[]}`, field: "derivationSteps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingField))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"theoryName": `))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingField))

	_, err = Decode([]byte("   "))
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	c := &CalculationResponse{TheoryName: "Starobinsky", Observables: ObservableResult{Ns: 0.965, R: 0.003}}
	assert.Equal(t, "Starobinsky (n_s=0.9650, r=0.00300)", c.Summary())
}
