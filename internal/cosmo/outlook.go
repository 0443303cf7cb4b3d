package cosmo

import (
	"fmt"
	"strconv"
	"strings"
)

// Detection thresholds on the tensor-to-scalar ratio.
const (
	CurrentReachR = 0.01
	FutureReachR  = 0.001
)

// Outlook sentences, selected by Outlook.
const (
	OutlookCurrent  = "Primordial gravitational waves at this level should be within reach of current B-mode experiments such as BICEP/Keck."
	OutlookFuture   = "A tensor signal this size is a target for next-generation CMB missions such as LiteBIRD and CMB-S4."
	OutlookUnlikely = "Tensor modes this small sit below the sensitivity of planned experiments; detection is unlikely in the near term."
)

// Outlook returns the detection outlook sentence for a tensor-to-scalar ratio.
func Outlook(r float64) string {
	switch {
	case r > CurrentReachR:
		return OutlookCurrent
	case r > FutureReachR:
		return OutlookFuture
	default:
		return OutlookUnlikely
	}
}

// Stat is a labeled, formatted observable for display.
type Stat struct {
	Label string
	Value string
}

// Stats returns the stat cards for a result in display order.
// Optional observables that were not returned show as "N/A".
func (o ObservableResult) Stats() []Stat {
	return []Stat{
		{Label: "n_s", Value: strconv.FormatFloat(o.Ns, 'f', 4, 64)},
		{Label: "r", Value: strconv.FormatFloat(o.R, 'f', 5, 64)},
		{Label: "A_s", Value: FormatAmplitude(o.As)},
		{Label: "n_t", Value: formatOptional(o.Nt, 4)},
		{Label: "α_s", Value: formatOptional(o.AlphaS, 5)},
	}
}

// FormatAmplitude renders an amplitude in scientific notation (2.10e-9).
func FormatAmplitude(v float64) string {
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', 2, 64), "e")
	n, err := strconv.Atoi(exp)
	if err != nil {
		return mant
	}
	return fmt.Sprintf("%se%d", mant, n)
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

// Summary is a one-line description of a result, used in logs and history listings.
func (c *CalculationResponse) Summary() string {
	return fmt.Sprintf("%s (n_s=%.4f, r=%.5f)", c.TheoryName, c.Observables.Ns, c.Observables.R)
}
