package model

// BaselineKind states what an observed value is being compared against.
type BaselineKind string

const (
	BaselineHistoricalSelf BaselineKind = "historical_self" // Entity's own trailing-period aggregate
	BaselinePeerGroup      BaselineKind = "peer_group"      // Aggregate over comparable entities
	BaselineNone           BaselineKind = "none"            // No comparison available
)

// Normalization states whether a value is raw or population-adjusted.
type Normalization string

const (
	NormRaw       Normalization = "raw"
	NormPerCapita Normalization = "per_capita" // Per the standard denominator (100,000)
)

// InsightRecord is one quantitative finding grounding narrative text. Records are
// computed fresh per query result and discarded after the response is assembled.
type InsightRecord struct {
	Metric        string        `json:"metric"`           // Column the finding is about
	Entity        string        `json:"entity,omitempty"` // Entity the finding is about, if any
	Kind          string        `json:"kind"`             // baseline, ranking, outlier, statistic, concentration
	Observed      float64       `json:"observed"`
	Baseline      float64       `json:"baseline,omitempty"`
	BaselineKind  BaselineKind  `json:"baseline_kind"`
	Normalization Normalization `json:"normalization"`
	NormObserved  float64       `json:"norm_observed,omitempty"` // Per-capita observed, when available
	NormBaseline  float64       `json:"norm_baseline,omitempty"` // Per-capita baseline, when available
	Delta         float64       `json:"delta"`                   // Observed - baseline
	Ratio         float64       `json:"ratio"`                   // Observed / baseline (0 when baseline is 0)
	Finding       string        `json:"finding"`                 // Human-readable sentence
	Exhaustive    bool          `json:"exhaustive"`              // False when the result set was truncated
}
