// internal/search/criteria.go
package search

import (
	"strings"
	"time"
)

// Concat is the logical operator tying a criterion (or group) to the next one.
// The last criterion of a list carries ConcatNone.
type Concat string

const (
	ConcatNone Concat = ""
	ConcatAnd  Concat = "and"
	ConcatOr   Concat = "or"
)

func normalizeConcat(c Concat) Concat {
	return Concat(strings.ToLower(string(c)))
}

// Criterion is one atomic filter condition. StartParenCount/EndParenCount are
// the opening/closing parentheses attached to this row; across a well-formed
// list the running sum of start minus end returns to zero at group boundaries.
type Criterion struct {
	RowNumber       int    `json:"row_number"`
	StartParenCount int    `json:"start_paren_count"`
	EndParenCount   int    `json:"end_paren_count"`
	AttributeName   string `json:"attribute_name"`
	Operator        string `json:"operator"`
	Values          []any  `json:"values"`
	Concat          Concat `json:"logical_concatenation"`
}

type Criteria []Criterion

// Supported criterion operators. Matching is case-insensitive.
const (
	OpEq         = "="
	OpNe         = "<>"
	OpGt         = ">"
	OpLt         = "<"
	OpGte        = ">="
	OpLte        = "<="
	OpInList     = "in list"
	OpNotInList  = "not in list"
	OpContains   = "contains"
	OpDaysBefore = "days before"
	OpDaysAfter  = "days after"
)

// LogicalGroup is one node of the parenthesis tree. A leaf compiles its
// criteria directly; an internal node combines its child groups' conditions.
// Groups are built per compile call and discarded once the condition is
// extracted; only the condition is ever persisted.
type LogicalGroup struct {
	Concat    Concat
	Groups    []*LogicalGroup
	Criteria  Criteria
	Level     int
	Condition Condition
}

func newLogicalGroup(level int) *LogicalGroup {
	return &LogicalGroup{Level: level}
}

func cloneCriteria(criteria Criteria) Criteria {
	out := make(Criteria, len(criteria))
	copy(out, criteria)
	for i := range out {
		if out[i].Values != nil {
			values := make([]any, len(out[i].Values))
			copy(values, out[i].Values)
			out[i].Values = values
		}
	}
	return out
}

// DateNoYearString renders a date as MMDD, the year-independent form stored
// in *_no_year columns. Example: 2020-03-14 > "0314".
func DateNoYearString(date time.Time) string {
	return date.Format("0102")
}
