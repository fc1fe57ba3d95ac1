package model

// ChartKind identifies one of the supported chart encodings. Rendering belongs to
// the presentation layer; the selector only chooses encodings and bindings.
type ChartKind string

const (
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartPie        ChartKind = "pie"
	ChartScatter    ChartKind = "scatter"
	ChartChoropleth ChartKind = "choropleth"
	ChartTable      ChartKind = "table" // Guaranteed fallback, always available
)

// ChartSpec is a chosen encoding with column bindings. Bindings are optional
// depending on the kind; the table fallback binds nothing.
type ChartSpec struct {
	Kind      ChartKind `json:"kind"`
	X         string    `json:"x,omitempty"`
	Y         string    `json:"y,omitempty"`
	Series    string    `json:"series,omitempty"` // Color/series grouping column
	Facet     string    `json:"facet,omitempty"`
	Rationale string    `json:"rationale,omitempty"` // Why this encoding fired
	Score     int       `json:"score"`               // Relevance; callers see highest first
	Sample    bool      `json:"sample"`              // Renderer should down-sample points
}
