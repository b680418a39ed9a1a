// internal/search/condition.go
package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
)

// Condition is one node of a compiled filter predicate. Either And or Or is
// populated (a logical node), or Attr/Op (an atomic comparison). The zero
// Condition is the universal match.
type Condition struct {
	And []Condition `json:"and,omitempty"`
	Or  []Condition `json:"or,omitempty"`

	Attr   string `json:"attr,omitempty"`
	Op     string `json:"op,omitempty"`
	Value  any    `json:"value,omitempty"`
	Values []any  `json:"values,omitempty"`
}

// IsZero reports whether the condition matches everything.
func (c Condition) IsZero() bool {
	return len(c.And) == 0 && len(c.Or) == 0 && c.Attr == "" && c.Op == ""
}

// Marshal serializes the condition for persistence on a campaign.
func (c Condition) Marshal() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal condition: %w", err)
	}
	return string(b), nil
}

// ParseCondition restores a condition persisted by Marshal.
func ParseCondition(raw string) (Condition, error) {
	var c Condition
	if raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Condition{}, fmt.Errorf("parse condition: %w", err)
	}
	return c, nil
}

func (c Condition) children(concat Concat) []Condition {
	if concat == ConcatAnd {
		return c.And
	}
	return c.Or
}

func (c Condition) withChildren(concat Concat, children []Condition) Condition {
	if concat == ConcatAnd {
		c.And = children
		return c
	}
	c.Or = children
	return c
}

// attachCondition folds next into acc under concat. When concat differs from
// the operator applied last, the accumulator is wrapped one level deeper
// first; this yields strict left-to-right precedence, so "A or B and C"
// compiles to "(A or B) and C".
func attachCondition(concat, lastApplied Concat, acc, next Condition) Condition {
	if concat == ConcatNone {
		return next
	}

	if concat != lastApplied {
		wrapped := Condition{}
		acc = wrapped.withChildren(concat, []Condition{acc})
	}

	return acc.withChildren(concat, append(acc.children(concat), next))
}

// criterionCondition converts one criterion into an atomic condition per the
// operator table. Unknown operators are a structural error.
func criterionCondition(criterion Criterion, now time.Time) (Condition, error) {
	attr := criterion.AttributeName

	switch strings.ToLower(criterion.Operator) {
	case OpEq:
		return Condition{Attr: attr, Op: "eq", Value: firstValue(criterion)}, nil
	case OpNe:
		return Condition{Attr: attr, Op: "ne", Value: firstValue(criterion)}, nil
	case OpGt:
		return Condition{Attr: attr, Op: "gt", Value: firstValue(criterion)}, nil
	case OpLt:
		return Condition{Attr: attr, Op: "lt", Value: firstValue(criterion)}, nil
	case OpGte:
		return Condition{Attr: attr, Op: "gte", Value: firstValue(criterion)}, nil
	case OpLte:
		return Condition{Attr: attr, Op: "lte", Value: firstValue(criterion)}, nil
	case OpInList:
		return Condition{Attr: attr, Op: "in", Values: criterion.Values}, nil
	case OpNotInList:
		return Condition{Attr: attr, Op: "nin", Values: criterion.Values}, nil
	case OpContains:
		return Condition{Attr: attr, Op: "contains", Value: firstValue(criterion)}, nil
	case OpDaysBefore, OpDaysAfter:
		return daysRangeCondition(criterion, now)
	}

	return Condition{}, appErrors.NewCriteriaError("operator not supported %q (row %d)", criterion.Operator, criterion.RowNumber)
}

// daysRangeCondition builds the year-independent date window for the
// "days before"/"days after" operators. Before spans [now-days, now], after
// spans [now, now+days]; both compare the MMDD form of the attribute.
func daysRangeCondition(criterion Criterion, now time.Time) (Condition, error) {
	days, err := intValue(firstValue(criterion))
	if err != nil {
		return Condition{}, appErrors.NewCriteriaError("operator %q needs a day count value (row %d): %v", criterion.Operator, criterion.RowNumber, err)
	}

	start, end := now, now
	if strings.EqualFold(criterion.Operator, OpDaysAfter) {
		end = now.AddDate(0, 0, days)
	} else {
		start = now.AddDate(0, 0, -days)
	}

	attr := criterion.AttributeName + "NoYear"
	return Condition{
		And: []Condition{
			{Attr: attr, Op: "gte", Value: DateNoYearString(start)},
			{Attr: attr, Op: "lte", Value: DateNoYearString(end)},
		},
	}, nil
}

func firstValue(criterion Criterion) any {
	if len(criterion.Values) == 0 {
		return nil
	}
	return criterion.Values[0]
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

// OrgLimiter restricts a query to one organization. MemberOrg takes
// precedence over HoldingOrg; with neither set the query is left untouched.
type OrgLimiter struct {
	HoldingOrgID *int
	MemberOrgID  *int
}

// AttachOrgLimiter conjoins the tenant restriction to an already compiled
// condition.
func AttachOrgLimiter(cond Condition, limiter OrgLimiter) Condition {
	switch {
	case limiter.MemberOrgID != nil:
		return Condition{And: []Condition{cond, {Attr: "memberOrg", Op: "eq", Value: *limiter.MemberOrgID}}}
	case limiter.HoldingOrgID != nil:
		return Condition{And: []Condition{cond, {Attr: "holdingOrg", Op: "eq", Value: *limiter.HoldingOrgID}}}
	}
	return cond
}
