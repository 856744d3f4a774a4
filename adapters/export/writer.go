// Package export serializes run results to spreadsheet workbooks: one
// summary sheet of descriptive statistics plus one sheet of regression
// tables per measure pair.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wavelytics/domain/wavelet"
	"wavelytics/internal"
	"wavelytics/internal/analysis/descriptive"
	"wavelytics/internal/research"

	"github.com/xuri/excelize/v2"
)

// Writer renders analysis runs as xlsx workbooks.
type Writer struct {
	exportDir string
	log       *internal.Logger
}

// NewWriter creates a writer that places workbooks under exportDir.
func NewWriter(exportDir string, log *internal.Logger) *Writer {
	return &Writer{exportDir: exportDir, log: log}
}

// WriteRun serializes one run to <exportDir>/run_<id>.xlsx and returns the
// written path.
func (w *Writer) WriteRun(result *research.RunResult) (string, error) {
	if err := os.MkdirAll(w.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, result); err != nil {
		return "", err
	}
	for _, pair := range result.Pairs {
		if err := w.writePairSheet(f, pair); err != nil {
			return "", err
		}
	}
	// Drop the default sheet left over from NewFile.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to drop default sheet: %w", err)
	}

	path := filepath.Join(w.exportDir, fmt.Sprintf("run_%s.xlsx", result.ID))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	w.log.Info("export: wrote %s (%d pair sheets)", path, len(result.Pairs))
	return path, nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, result *research.RunResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	header := []interface{}{"Measure", "Count", "Mean", "StdDev", "Min", "Max", "Median",
		"Skewness", "Kurtosis", "JarqueBera", "JB p-value", "LjungBox", "LB p-value"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, m := range result.Measures {
		s := m.Summary
		cells := []interface{}{
			s.Measure.String(), s.Count, s.Mean, s.StdDev, s.Min, s.Max, s.Median,
			s.Skewness, s.Kurtosis,
			s.JarqueBera.Statistic, formatP(s.JarqueBera.PValue),
			s.LjungBox.Statistic, formatP(s.LjungBox.PValue),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return err
		}
		row++
	}
	return nil
}

func (w *Writer) writePairSheet(f *excelize.File, pair *research.PairAnalysis) error {
	sheet := sheetName(pair.Pair.String())
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet for %s: %w", pair.Pair, err)
	}

	header := []interface{}{"Label", "Level", "Coefficient", "Intercept", "StdError",
		"p-value", "Stars", "R2", "N"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	write := func(r wavelet.RegressionResult) error {
		cells := []interface{}{
			r.Label, r.Level, r.Coefficient, r.Intercept, r.StandardError,
			formatP(r.PValue), descriptive.Stars(r.PValue), r.RSquared, r.NObservations,
		}
		err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells)
		row++
		return err
	}

	for _, r := range pair.DetailRegressions {
		if err := write(r); err != nil {
			return err
		}
	}
	for _, r := range pair.ApproximationRegressions {
		if err := write(r); err != nil {
			return err
		}
	}

	phase := []interface{}{"mean phase (rad)", pair.MeanPhase, "observations", pair.Observations}
	return f.SetSheetRow(sheet, fmt.Sprintf("A%d", row+1), &phase)
}

// sheetName maps a pair key to a valid sheet name: the characters excelize
// rejects are replaced and the result capped at 31 runes.
func sheetName(name string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	out := replacer.Replace(name)
	if len(out) > 31 {
		out = out[:31]
	}
	return out
}

func formatP(p float64) string {
	return fmt.Sprintf("%.4f", p)
}
