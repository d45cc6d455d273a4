package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/rileyhilliard/viewui/internal/grafana"
	"github.com/rileyhilliard/viewui/internal/store"
)

// WriteSnapshot prints a state as plain text tables, one per panel. It is
// the output of `viewui snapshot` and of the TUI when stdout isn't a
// terminal.
func WriteSnapshot(w io.Writer, s store.State) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", s.Title)
	fmt.Fprintf(&b, "status %s | last %s", s.Status, s.TimeRange)
	if !s.LastRefresh.IsZero() {
		fmt.Fprintf(&b, " | refreshed %s", s.LastRefresh.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n")
	if s.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", s.Error)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn)
	}

	if len(s.Variables) > 0 {
		b.WriteString("\n")
		writeVariables(&b, s)
	}

	for _, pd := range s.Panels {
		b.WriteString("\n")
		writePanel(&b, pd)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeVariables(w io.Writer, s store.State) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Variable", "Value", "Options"})
	t.SetAutoWrapText(false)
	for _, v := range s.Variables {
		opts := s.VariableOptions[v.Name]
		note := strconv.Itoa(len(opts))
		if e, ok := s.VariableErrors[v.Name]; ok {
			note = "error: " + e
		}
		t.Append([]string{v.DisplayName(), s.VariableValues[v.Name], note})
	}
	t.Render()
}

func writePanel(w io.Writer, pd store.PanelData) {
	fmt.Fprintf(w, "## %s (%s)\n", pd.Panel.Title, pd.Panel.Type)
	if pd.Error != "" {
		fmt.Fprintf(w, "error: %s\n", pd.Error)
	}
	if !pd.HasData() {
		fmt.Fprintln(w, "no data")
		return
	}

	t := tablewriter.NewWriter(w)
	t.SetAutoWrapText(false)

	switch pd.Panel.Type {
	case grafana.PanelTable:
		series := successfulSeries(pd.Results)
		cols := labelColumns(series)
		header := append(append([]string{}, cols...), "Value")
		if len(cols) == 0 {
			header = []string{"Series", "Value"}
		}
		t.SetHeader(header)
		t.AppendBulk(tableRows(series, cols, pd.Panel.Unit))

	case grafana.PanelStat:
		t.SetHeader([]string{"Query", "Series", "Value"})
		for _, r := range pd.Results {
			if r.Failed() {
				t.Append([]string{r.RefID, "error", r.Error})
				continue
			}
			for _, s := range r.Series {
				value := "-"
				if smp, ok := s.Latest(); ok {
					value = FormatLarge(smp.Value)
				}
				t.Append([]string{r.RefID, s.Name(), value})
			}
		}

	default:
		t.SetHeader([]string{"Query", "Series", "Current", "Min", "Max", "Avg"})
		for _, r := range pd.Results {
			if r.Failed() {
				t.Append([]string{r.RefID, "error", r.Error, "", "", ""})
				continue
			}
			for _, s := range r.Series {
				st := ComputeStats(s.Values())
				t.Append([]string{
					r.RefID, s.Name(),
					FormatWithUnit(st.Current, pd.Panel.Unit),
					FormatValue(st.Min), FormatValue(st.Max), FormatValue(st.Mean),
				})
			}
		}
	}
	t.Render()
}

// WriteDashboardList prints discovered dashboards, marking current.
func WriteDashboardList(w io.Writer, files []grafana.DashboardFile, current string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"", "Title", "File"})
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	for _, f := range files {
		mark := ""
		if samePath(f.Path, current) {
			mark = "*"
		}
		t.Append([]string{mark, f.Title, f.Path})
	}
	t.Render()
}
