package model

import "time"

// Report is the complete outcome of one analytics turn: the validated
// statement, the governed result, and everything derived from it.
type Report struct {
	ConversationID string            `json:"conversation_id"`
	Question       string            `json:"question,omitempty"` // Empty when SQL was supplied directly
	SQL            string            `json:"sql"`
	Explanation    string            `json:"explanation,omitempty"`
	Verdict        ValidationVerdict `json:"verdict"`
	Result         *ResultSet        `json:"result,omitempty"`
	Roles          []ColumnRole      `json:"roles,omitempty"`
	Charts         []ChartSpec       `json:"charts,omitempty"`
	Insights       []InsightRecord   `json:"insights,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
	TokensUsed     int               `json:"tokens_used,omitempty"`
}

// Rejected reports whether the turn stopped at validation.
func (r *Report) Rejected() bool {
	return !r.Verdict.Accepted
}

// Chart returns the top-ranked chart, always present for executed queries.
func (r *Report) Chart() *ChartSpec {
	if len(r.Charts) == 0 {
		return nil
	}
	return &r.Charts[0]
}
