package model

// CandidateStatement is a SQL statement produced by the upstream translator for
// one conversation turn. It is immutable and consumed exactly once by the validator.
type CandidateStatement struct {
	SQL            string `json:"sql"`             // Raw SQL text as produced upstream
	ConversationID string `json:"conversation_id"` // Originating conversation turn
}

// RejectReason classifies why a statement was refused at validation time
type RejectReason string

const (
	RejectMultiStatement     RejectReason = "multi_statement"     // More than one statement in the text
	RejectWriteOperation     RejectReason = "write_operation"     // Data- or schema-modifying keyword
	RejectDisallowedFunction RejectReason = "disallowed_function" // File/network/stall-capable function call
	RejectSyntaxAmbiguous    RejectReason = "syntax_ambiguous"    // Not a SELECT/WITH, or unterminated string/comment
	RejectUnknownTable       RejectReason = "unknown_table"       // References a table outside the data dictionary
)

// ValidationVerdict is the validator's decision for one candidate statement.
// When accepted, Normalized always carries exactly one read-only statement with a
// row-bound clause no larger than the configured maximum.
type ValidationVerdict struct {
	Accepted   bool         `json:"accepted"`
	Normalized string       `json:"normalized,omitempty"` // Statement actually handed to the governor
	Reason     RejectReason `json:"reason,omitempty"`
	Detail     string       `json:"detail,omitempty"` // Human-readable explanation for the orchestrator
	Clamped    bool         `json:"clamped"`          // True when an oversized LIMIT was reduced
	Injected   bool         `json:"injected"`         // True when a missing LIMIT was appended
}
