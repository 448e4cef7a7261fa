package http

import (
	"cmp"
	"math"
	"slices"

	"energydash/internal/core"
	"energydash/internal/export"
	"energydash/internal/i18n"
	"energydash/internal/workset"
)

// View models handed to the templates. Numbers are preformatted for the
// page locale so that templates stay free of formatting logic.
type (
	viewContext struct {
		L      *i18n.Localizer
		Locale string
		Base   string
	}

	pageData struct {
		V         viewContext
		Languages []languageLink
		Summary   summaryView
		Status    statusView
		Table     tableView
		Filter    filterView
		Exports   []exportLink
	}

	languageLink struct {
		Code   string
		URL    string
		Active bool
	}

	summaryView struct {
		V                viewContext
		Records          int
		TotalConsumption string
		TotalCost        string
		TotalSaved       string
		TotalMoneySaved  string
		AverageSavings   string
		Good             bool
	}

	statusView struct {
		V         viewContext
		Pending   int
		Deletions int
	}

	tableView struct {
		V       viewContext
		Columns []columnView
		Rows    []rowView
		Deleted []rowView
	}

	columnView struct {
		Field     string
		Label     string
		Sortable  bool
		Indicator string
	}

	rowView struct {
		V           viewContext
		ID          string
		Period      string
		Consumption string
		Cost        string
		Saved       string
		MoneySaved  string
		Savings     string
		Positive    bool
		Pending     bool
		Kind        string
		Form        recordForm
	}

	// recordForm holds raw input values for the inline editor.
	recordForm struct {
		Period      string
		Consumption string
		Cost        string
		Saved       string
		MoneySaved  string
	}

	filterView struct {
		V              viewContext
		MinConsumption string
		MaxConsumption string
		MinCost        string
		MaxCost        string
		Active         bool
	}

	exportLink struct {
		Label string
		URL   string
	}
)

func newViewContext(pc *pageContext) viewContext {
	return viewContext{L: pc.L, Locale: pc.Locale, Base: pc.Base()}
}

func (s *Server) buildPage(pc *pageContext) pageData {
	v := newViewContext(pc)
	data := pageData{
		V:       v,
		Summary: buildSummary(pc),
		Status:  buildStatus(pc),
		Table:   buildTable(pc),
		Filter:  buildFilter(pc),
	}
	for _, code := range i18n.Locales {
		data.Languages = append(data.Languages, languageLink{
			Code:   code,
			URL:    localeBase(code) + "/",
			Active: code == pc.Locale,
		})
	}
	for _, f := range export.Formats {
		data.Exports = append(data.Exports, exportLink{
			Label: pc.L.T("export." + string(f)),
			URL:   v.Base + "/export/" + string(f),
		})
	}
	return data
}

// visibleRecords is the working set after the session's filter and sort.
func visibleRecords(pc *pageContext) []core.Record {
	recs := pc.Session.Reconciler.Filtered(pc.Session.Filter)
	return core.Sorted(recs, pc.Session.Sort)
}

func buildSummary(pc *pageContext) summaryView {
	sum := core.Summarize(pc.Session.Reconciler.Filtered(pc.Session.Filter))
	l := pc.L
	return summaryView{
		V:                newViewContext(pc),
		Records:          sum.Records,
		TotalConsumption: l.Number(sum.TotalConsumption, 0),
		TotalCost:        l.Money(sum.TotalCost),
		TotalSaved:       l.Number(sum.TotalSaved, 0),
		TotalMoneySaved:  l.Money(sum.TotalMoneySaved),
		AverageSavings:   l.Percent(sum.AverageSavings),
		Good:             sum.PerformanceIsGood,
	}
}

func buildStatus(pc *pageContext) statusView {
	st := statusView{V: newViewContext(pc)}
	for _, c := range pc.Session.Reconciler.Pending() {
		st.Pending++
		if c.Kind == workset.ChangeDeleted {
			st.Deletions++
		}
	}
	return st
}

func buildTable(pc *pageContext) tableView {
	t := tableView{V: newViewContext(pc)}
	current := pc.Session.Sort
	for _, field := range core.Fields {
		col := columnView{
			Field:    field,
			Label:    pc.L.T("column." + field),
			Sortable: field != core.FieldID,
		}
		if current.Field == field {
			col.Indicator = "▲"
			if current.Order == core.SortDesc {
				col.Indicator = "▼"
			}
		}
		t.Columns = append(t.Columns, col)
	}

	pending := pc.Session.Reconciler.Pending()
	for _, rec := range visibleRecords(pc) {
		t.Rows = append(t.Rows, buildRow(pc, rec, pending))
	}

	var deleted []core.Record
	for _, c := range pending {
		if c.Kind == workset.ChangeDeleted {
			deleted = append(deleted, c.Record)
		}
	}
	slices.SortFunc(deleted, func(a, b core.Record) int {
		return cmp.Compare(a.ID, b.ID)
	})
	for _, rec := range deleted {
		t.Deleted = append(t.Deleted, buildRow(pc, rec, pending))
	}
	return t
}

func buildRow(pc *pageContext, rec core.Record, pending map[string]workset.Change) rowView {
	l := pc.L
	row := rowView{
		V:           newViewContext(pc),
		ID:          rec.ID,
		Period:      rec.Period,
		Consumption: l.Number(rec.Consumption, measureDecimals(rec.Consumption)),
		Cost:        l.Money(rec.Cost),
		Saved:       l.Number(rec.Saved, measureDecimals(rec.Saved)),
		MoneySaved:  l.Money(rec.MoneySaved),
		Savings:     signedPercent(l, rec.SavingsPercentage),
		Positive:    rec.SavingsPercentage >= 0,
		Form: recordForm{
			Period:      rec.Period,
			Consumption: inputValue(rec.Consumption),
			Cost:        inputValue(rec.Cost),
			Saved:       inputValue(rec.Saved),
			MoneySaved:  inputValue(rec.MoneySaved),
		},
	}
	if c, ok := pending[rec.ID]; ok {
		row.Pending = true
		row.Kind = string(c.Kind)
	}
	return row
}

func buildFilter(pc *pageContext) filterView {
	f := pc.Session.Filter
	return filterView{
		V:              newViewContext(pc),
		MinConsumption: optionalInput(f.MinConsumption),
		MaxConsumption: optionalInput(f.MaxConsumption),
		MinCost:        optionalInput(f.MinCost),
		MaxCost:        optionalInput(f.MaxCost),
		Active:         !f.IsZero(),
	}
}

// measureDecimals shows whole kWh without a fraction.
func measureDecimals(v float64) int {
	if v == math.Trunc(v) {
		return 0
	}
	return 2
}

// signedPercent renders a row's savings like "+4.5%".
func signedPercent(l *i18n.Localizer, v float64) string {
	out := l.Number(v, 1) + "%"
	if v > 0 {
		return "+" + out
	}
	return out
}
