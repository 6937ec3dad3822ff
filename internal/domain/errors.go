package domain

import (
	"fmt"
	"strings"
)

// MissingInputError marks a table the plan needs but the session does not have yet.
// It gates computation; it is not a failure.
type MissingInputError struct {
	Table string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input: %s table has not been provided", e.Table)
}

// SchemaMismatchError lists required columns absent from an uploaded table.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s table: missing columns %s", e.Table, strings.Join(e.Missing, ", "))
}

// Repair records a malformed cell that was replaced by its documented default.
type Repair struct {
	Table   string `json:"table"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Raw     string `json:"raw"`
	Default string `json:"default"`
}

// Issue is a user-facing message attached to a plan result.
type Issue struct {
	Table   string   `json:"table"`
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

const (
	IssueMissingInput   = "missing_input"
	IssueSchemaMismatch = "schema_mismatch"
	IssueMalformedValue = "malformed_value"
	IssueUnreadable     = "unreadable"
)
