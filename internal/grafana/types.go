// Package grafana normalizes Grafana dashboard JSON into a render-ready model
// and resolves template variables in query text.
package grafana

// PanelType is one of the panel shapes viewui can render.
type PanelType string

const (
	PanelTimeSeries PanelType = "timeseries"
	PanelStat       PanelType = "stat"
	PanelTable      PanelType = "table"
)

// supportedPanelTypes lists the panel types accepted by the parser.
var supportedPanelTypes = map[PanelType]bool{
	PanelTimeSeries: true,
	PanelStat:       true,
	PanelTable:      true,
}

// VariableType is the kind of a template variable.
type VariableType string

const (
	VariableQuery    VariableType = "query"
	VariableCustom   VariableType = "custom"
	VariableConstant VariableType = "constant"
	VariableTextbox  VariableType = "textbox"
	VariableInterval VariableType = "interval"
)

var supportedVariableTypes = map[VariableType]bool{
	VariableQuery:    true,
	VariableCustom:   true,
	VariableConstant: true,
}

// Dashboard is a normalized dashboard. Panels are sorted by grid position.
type Dashboard struct {
	Title     string
	Panels    []Panel
	Variables []Variable
}

// Panel is a supported panel with at least one query.
type Panel struct {
	ID         int
	Title      string
	Type       PanelType
	Queries    []Query
	GridPos    GridPos
	Thresholds *ThresholdConfig
	// Unit is fieldConfig.defaults.unit, kept for value formatting.
	Unit string
}

// Query is a PromQL expression that may contain $name or ${name} placeholders.
type Query struct {
	Expr         string
	RefID        string
	LegendFormat string
}

// GridPos is the panel position on Grafana's 24-column grid.
type GridPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DefaultGridPos is used when a panel has no gridPos.
var DefaultGridPos = GridPos{X: 0, Y: 0, W: 12, H: 8}

// Variable is a template variable definition.
type Variable struct {
	Name        string
	Label       string
	Description string
	Type        VariableType
	Query       string
	// Regex filters discovered options. When it has a capture group, the
	// first group becomes the option value.
	Regex      string
	Options    []string
	Current    string
	HasCurrent bool
	Multi      bool
	IncludeAll bool
}

// DisplayName returns the label if present, else the name.
func (v Variable) DisplayName() string {
	if v.Label != "" {
		return v.Label
	}
	return v.Name
}

// ParseResult is the output of Parse: the dashboard plus every non-fatal
// warning collected while normalizing it.
type ParseResult struct {
	Dashboard Dashboard
	Warnings  []string
}
