package grafana

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/rileyhilliard/viewui/internal/errors"
)

const (
	defaultDashboardTitle = "Untitled Dashboard"
	defaultRefID          = "A"
	prometheusDatasource  = "prometheus"
	rowPanelType          = "row"
)

const structuralSuggestion = "Export the dashboard JSON from Grafana (Share > Export) and try again"

type rawList struct {
	List []json.RawMessage `json:"list"`
}

type rawPanel struct {
	ID              *int              `json:"id"`
	Title           string            `json:"title"`
	Type            string            `json:"type"`
	Targets         []json.RawMessage `json:"targets"`
	GridPos         *GridPos          `json:"gridPos"`
	FieldConfig     json.RawMessage   `json:"fieldConfig"`
	Transformations []json.RawMessage `json:"transformations"`
	Panels          []json.RawMessage `json:"panels"`
}

type rawTarget struct {
	Expr         string          `json:"expr"`
	RefID        string          `json:"refId"`
	LegendFormat string          `json:"legendFormat"`
	Datasource   json.RawMessage `json:"datasource"`
	Hide         bool            `json:"hide"`
}

type rawVariable struct {
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Query       json.RawMessage `json:"query"`
	Regex       string          `json:"regex"`
	Options     []struct {
		Value json.RawMessage `json:"value"`
	} `json:"options"`
	Current *struct {
		Value json.RawMessage `json:"value"`
	} `json:"current"`
	Multi      bool `json:"multi"`
	IncludeAll bool `json:"includeAll"`
}

// parser accumulates warnings while normalizing one document.
type parser struct {
	warnings []string
}

func (p *parser) warn(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// Parse normalizes a Grafana dashboard JSON document.
//
// The document must be a JSON object with a panels array, otherwise a
// DASHBOARD error is returned. Everything else that viewui cannot render is
// skipped and reported in ParseResult.Warnings. Documents in the Grafana API
// export shape ({"dashboard": {...}, "meta": {...}}) are unwrapped.
func Parse(data []byte) (*ParseResult, error) {
	if !json.Valid(data) {
		return nil, structuralError("invalid dashboard JSON: malformed document")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, structuralError("invalid dashboard JSON: not an object")
	}

	if _, hasPanels := top["panels"]; !hasPanels {
		if inner, ok := top["dashboard"]; ok {
			var unwrapped map[string]json.RawMessage
			if err := json.Unmarshal(inner, &unwrapped); err == nil && unwrapped != nil {
				top = unwrapped
			}
		}
	}

	var rawPanels []json.RawMessage
	if !decodeField(top, "panels", &rawPanels) || rawPanels == nil {
		return nil, structuralError("invalid dashboard JSON: missing panels array")
	}

	p := &parser{}
	dash := Dashboard{Title: defaultDashboardTitle}

	var title string
	if decodeField(top, "title", &title) && title != "" {
		dash.Title = title
	}

	var templating rawList
	if decodeField(top, "templating", &templating) {
		dash.Variables = p.parseVariables(templating.List)
	}

	dash.Panels = p.parsePanels(rawPanels)
	sort.SliceStable(dash.Panels, func(i, j int) bool {
		a, b := dash.Panels[i].GridPos, dash.Panels[j].GridPos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	var annotations rawList
	if decodeField(top, "annotations", &annotations) && len(annotations.List) > 0 {
		p.warn("Dashboard uses annotations which is not supported")
	}

	return &ParseResult{Dashboard: dash, Warnings: p.warnings}, nil
}

// ParseFile reads and normalizes the dashboard at path.
func ParseFile(path string) (*ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrDashboard,
				fmt.Sprintf("dashboard file not found: %s", path),
				"Check dashboard.path in your config or pass a dashboard file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrDashboard,
			fmt.Sprintf("failed to read dashboard %s", path), "")
	}

	result, err := Parse(data)
	if err != nil {
		var structural *errors.Error
		if stderrors.As(err, &structural) {
			return nil, errors.New(errors.ErrDashboard,
				fmt.Sprintf("%s (%s)", structural.Message, path), structural.Suggestion)
		}
		return nil, err
	}
	return result, nil
}

func structuralError(msg string) error {
	return errors.New(errors.ErrDashboard, msg, structuralSuggestion)
}

func (p *parser) parsePanels(rawPanels []json.RawMessage) []Panel {
	panels := make([]Panel, 0, len(rawPanels))
	for i, raw := range rawPanels {
		var rp rawPanel
		if err := json.Unmarshal(raw, &rp); err != nil {
			p.warn("Panel at index %d: invalid definition, skipping", i)
			continue
		}

		// Collapsed rows carry their panels inline.
		if rp.Type == rowPanelType && len(rp.Panels) > 0 {
			panels = append(panels, p.parsePanels(rp.Panels)...)
		}

		if panel, ok := p.parsePanel(rp); ok {
			panels = append(panels, panel)
		}
	}
	return panels
}

func (p *parser) parsePanel(rp rawPanel) (Panel, bool) {
	id := 0
	if rp.ID != nil {
		id = *rp.ID
	}
	title := rp.Title
	if title == "" {
		title = fmt.Sprintf("Panel %d", id)
	}

	if len(rp.Transformations) > 0 {
		p.warn("Panel %q (%d): transformations not supported, skipping", title, id)
	}

	if !supportedPanelTypes[PanelType(rp.Type)] {
		p.warn("Panel %q (%d): type %q not supported, skipping", title, id, rp.Type)
		return Panel{}, false
	}

	queries := make([]Query, 0, len(rp.Targets))
	for i, raw := range rp.Targets {
		var t rawTarget
		if err := json.Unmarshal(raw, &t); err != nil {
			p.warn("Panel %q (%d): target %d invalid, skipping query", title, id, i)
			continue
		}
		refID := t.RefID
		if refID == "" {
			refID = defaultRefID
		}
		if t.Hide {
			continue
		}
		if ds := datasourceType(t.Datasource); ds != "" && ds != prometheusDatasource {
			p.warn("Panel %q (%d): datasource %q not supported, skipping query %s", title, id, ds, refID)
			continue
		}
		expr := strings.TrimSpace(t.Expr)
		if expr == "" {
			p.warn("Panel %q (%d): query %s has an empty expression, skipping", title, id, refID)
			continue
		}
		queries = append(queries, Query{
			Expr:         expr,
			RefID:        refID,
			LegendFormat: t.LegendFormat,
		})
	}

	if len(queries) == 0 {
		p.warn("Panel %q (%d): no valid queries found, skipping", title, id)
		return Panel{}, false
	}

	gridPos := DefaultGridPos
	if rp.GridPos != nil {
		gridPos = *rp.GridPos
	}

	thresholds, unit := parseFieldConfig(rp.FieldConfig)

	return Panel{
		ID:         id,
		Title:      title,
		Type:       PanelType(rp.Type),
		Queries:    queries,
		GridPos:    gridPos,
		Thresholds: thresholds,
		Unit:       unit,
	}, true
}

// datasourceType returns the type of an object datasource reference. Legacy
// string references and template placeholders cannot be classified and
// return "".
func datasourceType(raw json.RawMessage) string {
	var ref struct {
		Type string `json:"type"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &ref) != nil {
		return ""
	}
	return ref.Type
}

// parseFieldConfig extracts thresholds and unit from fieldConfig.defaults.
// Any structural mismatch yields no thresholds.
func parseFieldConfig(raw json.RawMessage) (*ThresholdConfig, string) {
	var fc struct {
		Defaults map[string]json.RawMessage `json:"defaults"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &fc) != nil || fc.Defaults == nil {
		return nil, ""
	}

	var unit string
	decodeField(fc.Defaults, "unit", &unit)

	var th struct {
		Mode  string `json:"mode"`
		Steps []struct {
			Color string   `json:"color"`
			Value *float64 `json:"value"`
		} `json:"steps"`
	}
	if !decodeField(fc.Defaults, "thresholds", &th) || len(th.Steps) == 0 {
		return nil, unit
	}

	cfg := &ThresholdConfig{Mode: ThresholdMode(th.Mode)}
	if cfg.Mode == "" {
		cfg.Mode = ThresholdAbsolute
	}
	for _, s := range th.Steps {
		color := s.Color
		if color == "" {
			color = "green"
		}
		cfg.Steps = append(cfg.Steps, ThresholdStep{Color: color, Value: s.Value})
	}
	cfg.sortSteps()
	return cfg, unit
}

func (p *parser) parseVariables(list []json.RawMessage) []Variable {
	vars := make([]Variable, 0, len(list))
	for i, raw := range list {
		var rv rawVariable
		if err := json.Unmarshal(raw, &rv); err != nil {
			p.warn("Variable at index %d: invalid definition, skipping", i)
			continue
		}
		if rv.Name == "" {
			p.warn("Variable at index %d: missing name, skipping", i)
			continue
		}
		if !supportedVariableTypes[VariableType(rv.Type)] {
			p.warn("Variable %q: type %q not supported, skipping", rv.Name, rv.Type)
			continue
		}

		v := Variable{
			Name:        rv.Name,
			Label:       rv.Label,
			Description: rv.Description,
			Type:        VariableType(rv.Type),
			Query:       variableQueryText(rv.Query),
			Regex:       rv.Regex,
			Multi:       rv.Multi,
			IncludeAll:  rv.IncludeAll,
		}

		for _, o := range rv.Options {
			if val, ok := firstScalar(o.Value); ok {
				v.Options = append(v.Options, val)
			}
		}
		if v.Type == VariableCustom && len(v.Options) == 0 && v.Query != "" {
			v.Options = splitCustomQuery(v.Query)
		}

		if rv.Current != nil {
			v.Current, v.HasCurrent = firstScalar(rv.Current.Value)
		}

		vars = append(vars, v)
	}
	return vars
}

// variableQueryText accepts both "query": "..." and "query": {"query": "..."}.
func variableQueryText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Query string `json:"query"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Query
	}
	return ""
}

// firstScalar decodes a scalar or the first element of an array as text.
func firstScalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '[' {
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil || len(items) == 0 {
			return "", false
		}
		return firstScalar(items[0])
	}

	var v any
	if json.Unmarshal(raw, &v) != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// splitCustomQuery turns a custom variable's "a, b,c" query into options.
func splitCustomQuery(q string) []string {
	parts := lo.Map(strings.Split(q, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Uniq(lo.Compact(parts))
}

// decodeField unmarshals m[key] into dst and reports whether it succeeded.
func decodeField(m map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := m[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
