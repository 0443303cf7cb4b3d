package llm

import (
	"strings"

	"google.golang.org/genai"
)

// BuildPrompt creates the instruction sent with a theory description.
func BuildPrompt(theory string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert theoretical cosmologist specializing in cosmic inflation.\n\n")

	sb.WriteString("=== THEORY ===\n")
	sb.WriteString(theory)
	sb.WriteString("\n\n")

	sb.WriteString("=== YOUR TASK ===\n")
	sb.WriteString("Treat the text above as an inflationary action or potential V(phi) and analyze it in the slow-roll approximation.\n\n")
	sb.WriteString("Requirements:\n")
	sb.WriteString("1. Identify the theory and write the potential in closed form\n")
	sb.WriteString("2. Derive the slow-roll parameters epsilon and eta step by step, giving a LaTeX equation for each step\n")
	sb.WriteString("3. Evaluate at horizon exit for N = 55-60 e-folds\n")
	sb.WriteString("4. Compute n_s, r, A_s and, where meaningful, n_t and the running alpha_s\n")
	sb.WriteString("5. Sample the scalar and tensor power spectra at 20 wavenumbers spaced logarithmically from k = 1e-4 to k = 1 Mpc^-1\n")
	sb.WriteString("6. Interpret the predictions against Planck and BICEP/Keck constraints\n\n")
	sb.WriteString("Respond ONLY with a JSON document matching the response schema.")

	return sb.String()
}

// ResponseSchema describes the JSON document the model must return.
func ResponseSchema() *genai.Schema {
	number := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc}
	}
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	nullable := true

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"theoryName":    str("Common name of the inflation model"),
			"potentialForm": str("The inflaton potential in LaTeX"),
			"derivationSteps": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":    str("Short step title"),
						"content":  str("Explanation of the step"),
						"equation": str("Key equation in LaTeX"),
					},
					Required:         []string{"title", "content"},
					PropertyOrdering: []string{"title", "content", "equation"},
				},
			},
			"observables": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"ns":      number("Scalar spectral index"),
					"r":       number("Tensor-to-scalar ratio"),
					"As":      number("Scalar power spectrum amplitude"),
					"nt":      {Type: genai.TypeNumber, Description: "Tensor spectral index", Nullable: &nullable},
					"alpha_s": {Type: genai.TypeNumber, Description: "Running of the scalar spectral index", Nullable: &nullable},
				},
				Required:         []string{"ns", "r", "As"},
				PropertyOrdering: []string{"ns", "r", "As", "nt", "alpha_s"},
			},
			"spectrumData": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"k":      number("Wavenumber in Mpc^-1"),
						"scalar": number("Scalar power P_s(k)"),
						"tensor": number("Tensor power P_t(k)"),
					},
					Required:         []string{"k", "scalar", "tensor"},
					PropertyOrdering: []string{"k", "scalar", "tensor"},
				},
			},
			"interpretation": str("Physical interpretation of the predictions"),
		},
		Required: []string{"theoryName", "observables", "spectrumData", "derivationSteps"},
		PropertyOrdering: []string{
			"theoryName", "potentialForm", "derivationSteps",
			"observables", "spectrumData", "interpretation",
		},
	}
}
