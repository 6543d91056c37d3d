// Package report exports an assembled comparison as an XLSX workbook.
package report

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sitepulse/compete-cli/internal/model"
)

var titler = cases.Title(language.English)

// WriteXLSX writes the comparison workbook to path: one sheet for the
// category comparison, one for per-metric detail values, and one for
// failed metrics when any exist.
func WriteXLSX(path string, resp *model.AnalyzeResponse) error {
	f := xlsx.NewFile()

	if err := addComparisonSheet(f, resp); err != nil {
		return err
	}
	if err := addDetailSheet(f, "Your Site", resp.YourSite); err != nil {
		return err
	}
	if err := addDetailSheet(f, "Competitor Site", resp.CompetitorSite); err != nil {
		return err
	}
	if len(resp.FailedMetrics) > 0 {
		if err := addFailuresSheet(f, resp.FailedMetrics); err != nil {
			return err
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addComparisonSheet(f *xlsx.File, resp *model.AnalyzeResponse) error {
	sheet, err := f.AddSheet("Comparison")
	if err != nil {
		return eris.Wrap(err, "report: add comparison sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Category", "Yours", "Competitor", "Winner", "Gap"} {
		header.AddCell().Value = h
	}

	for _, name := range sortedKeys(resp.Comparison) {
		cmp := resp.Comparison[name]
		row := sheet.AddRow()
		row.AddCell().Value = titler.String(name)
		if cmp.Winner == model.WinnerUnavailable {
			row.AddCell().Value = "n/a"
			row.AddCell().Value = "n/a"
			row.AddCell().Value = string(model.WinnerUnavailable)
			row.AddCell().Value = ""
			continue
		}
		row.AddCell().SetFloat(cmp.YourValue)
		row.AddCell().SetFloat(cmp.CompetitorValue)
		row.AddCell().Value = string(cmp.Winner)
		row.AddCell().SetFloat(cmp.Gap)
	}

	sheet.AddRow()
	score := sheet.AddRow()
	score.AddCell().Value = "Market Share"
	score.AddCell().SetInt(resp.MarketShare.Yours)
	score.AddCell().SetInt(resp.MarketShare.Competitor)

	if resp.Insight != "" {
		sheet.AddRow()
		insightRow := sheet.AddRow()
		insightRow.AddCell().Value = "Insight"
		insightRow.AddCell().Value = resp.Insight
	}
	return nil
}

func addDetailSheet(f *xlsx.File, name string, analysis *model.SiteAnalysis) error {
	if analysis == nil {
		return nil
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, h := range []string{"Metric", "Value", "Provider", "Cached"} {
		header.AddCell().Value = h
	}

	for _, kind := range sortedKeys(analysis.Metrics) {
		res := analysis.Metrics[kind]
		if !res.OK() {
			continue
		}
		for _, valueName := range sortedKeys(res.Payload.Values) {
			row := sheet.AddRow()
			row.AddCell().Value = valueName
			row.AddCell().SetFloat(res.Payload.Values[valueName])
			row.AddCell().Value = res.Provider
			row.AddCell().SetBool(res.Cached)
		}
	}
	return nil
}

func addFailuresSheet(f *xlsx.File, failures []model.FailedMetric) error {
	sheet, err := f.AddSheet("Failed Metrics")
	if err != nil {
		return eris.Wrap(err, "report: add failures sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Side", "Provider", "Kind", "Error"} {
		header.AddCell().Value = h
	}
	for _, fm := range failures {
		row := sheet.AddRow()
		row.AddCell().Value = fm.Side
		row.AddCell().Value = fm.Metric
		row.AddCell().Value = fm.Kind
		row.AddCell().Value = fm.Error
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
