package api

import (
	"fmt"
	"math"
	"strings"

	"wavelytics/adapters/stats/dwt"
	"wavelytics/domain/wavelet"
	"wavelytics/internal/analysis/descriptive"
	"wavelytics/internal/research"
)

// BuildReport renders one run as a markdown document: the descriptive
// summary table, then per-pair regression tables and the lead/lag reading of
// the cross-wavelet phase.
func BuildReport(result *research.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Co-movement analysis run %s\n\n", result.ID)
	fmt.Fprintf(&b, "Basis: %s. Measures: %d. Pairs: %d.\n\n", result.Basis, len(result.Measures), len(result.Pairs))

	b.WriteString("## Measures\n\n")
	b.WriteString("| Measure | N | Mean | StdDev | Skew | Kurtosis | Jarque-Bera | Ljung-Box |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, m := range result.Measures {
		s := m.Summary
		fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f | %.2f | %.2f | %.2f%s | %.2f%s |\n",
			s.Measure, s.Count, s.Mean, s.StdDev, s.Skewness, s.Kurtosis,
			s.JarqueBera.Statistic, descriptive.Stars(s.JarqueBera.PValue),
			s.LjungBox.Statistic, descriptive.Stars(s.LjungBox.PValue))
	}
	b.WriteString("\n")

	for _, m := range result.Measures {
		writeEnergyLine(&b, m)
	}
	if len(result.Measures) > 0 {
		b.WriteString("\n")
	}

	for _, pair := range result.Pairs {
		writePairSection(&b, pair)
	}

	if len(result.Failures) > 0 {
		b.WriteString("## Failures\n\n")
		for name, msg := range result.Failures {
			fmt.Fprintf(&b, "- `%s`: %s\n", name, msg)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// writeEnergyLine reports how decomposition energy splits across bands for
// one measure.
func writeEnergyLine(b *strings.Builder, m *research.MeasureAnalysis) {
	if m.DWT == nil {
		return
	}
	var total float64
	energies := make([]float64, len(m.DWT.Coefficients))
	for i, band := range m.DWT.Coefficients {
		energies[i] = dwt.Energy(band)
		total += energies[i]
	}
	if total == 0 {
		return
	}
	parts := make([]string, len(energies))
	for i, e := range energies {
		label := "approx"
		if i > 0 {
			label = fmt.Sprintf("d%d", m.DWT.Levels+1-i)
		}
		parts[i] = fmt.Sprintf("%s %.1f%%", label, 100*e/total)
	}
	fmt.Fprintf(b, "- **%s** band energy: %s\n", m.Measure, strings.Join(parts, ", "))
}

func writePairSection(b *strings.Builder, pair *research.PairAnalysis) {
	fmt.Fprintf(b, "## Pair %s vs %s\n\n", pair.Pair.X, pair.Pair.Y)
	fmt.Fprintf(b, "%d common observations. Cross-wavelet phase outside the cone of influence averages %.2f rad: %s.\n\n",
		pair.Observations, pair.MeanPhase, classifyPhase(pair.MeanPhase))

	b.WriteString("| Level | Coefficient | StdError | p-value | R2 | N |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range pair.DetailRegressions {
		writeRegressionRow(b, r)
	}
	for _, r := range pair.ApproximationRegressions {
		writeRegressionRow(b, r)
	}
	b.WriteString("\n")
}

func writeRegressionRow(b *strings.Builder, r wavelet.RegressionResult) {
	fmt.Fprintf(b, "| %s | %.4f | %.4f | %.4f%s | %.3f | %d |\n",
		r.Label, r.Coefficient, r.StandardError, r.PValue, descriptive.Stars(r.PValue), r.RSquared, r.NObservations)
}

// classifyPhase turns a mean phase angle into a lead/lag statement. Positive
// phase means the first series leads.
func classifyPhase(phase float64) string {
	abs := math.Abs(phase)
	switch {
	case abs < math.Pi/4:
		return "the series move in phase"
	case abs > 3*math.Pi/4:
		return "the series move in anti-phase"
	case phase > 0:
		return "the first series leads"
	default:
		return "the second series leads"
	}
}
