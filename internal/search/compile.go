// internal/search/compile.go
package search

import (
	"time"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
)

// Compile turns a flat criteria list into a logical-group tree with every
// node's condition populated. The root's condition is the full predicate.
// Empty criteria compile to the universal match.
func Compile(criteria Criteria) (*LogicalGroup, error) {
	return compileAt(criteria, time.Now())
}

// CompileWithOrgLimiter compiles the criteria and conjoins the tenant
// restriction to the resulting predicate.
func CompileWithOrgLimiter(criteria Criteria, limiter OrgLimiter) (Condition, error) {
	root, err := Compile(criteria)
	if err != nil {
		return Condition{}, err
	}
	return AttachOrgLimiter(root.Condition, limiter), nil
}

// compileAt pins "now" for the days-before/days-after operators so tests can
// compile deterministically.
func compileAt(criteria Criteria, now time.Time) (*LogicalGroup, error) {
	if err := checkParenBalance(criteria); err != nil {
		return nil, err
	}

	root, err := buildLogicalGroups(criteria)
	if err != nil {
		return nil, err
	}
	if err := compileGroup(root, now); err != nil {
		return nil, err
	}
	return root, nil
}

// checkParenBalance rejects the whole list when parentheses do not balance:
// the running sum of start minus end counts must never go negative and must
// end at zero.
func checkParenBalance(criteria Criteria) error {
	depth := 0
	for _, criterion := range criteria {
		depth += criterion.StartParenCount
		depth -= criterion.EndParenCount
		if depth < 0 {
			return appErrors.NewCriteriaError("closing parenthesis without matching open (row %d)", criterion.RowNumber)
		}
	}
	if depth != 0 {
		return appErrors.NewCriteriaError("no closing parenthesis found")
	}
	return nil
}

// buildLogicalGroups is the grouping pass. It scans the criteria left to
// right, splitting parenthesized runs into child groups and recursing while
// nesting remains. Each child group's concatenation is taken from the last
// criterion of its slice: in "(A or B) and (C or D)" the rows read
// "A or, B and, C or, D"; the trailing "and" on B is the tie between the two
// groups, not part of the first one.
func buildLogicalGroups(criteria Criteria) (*LogicalGroup, error) {
	root := newLogicalGroup(0)
	root.Criteria = criteria
	if len(criteria) == 0 {
		return root, nil
	}
	if err := splitIntoGroups(root); err != nil {
		return nil, err
	}
	return root, nil
}

func splitIntoGroups(parent *LogicalGroup) error {
	criteria := parent.Criteria

	for i := 0; i < len(criteria); {
		// Cloning because the parenthesis counts are consumed as groups
		// are peeled off; the caller's criteria stay untouched.
		rest := cloneCriteria(criteria[i:])
		child := newLogicalGroup(parent.Level + 1)

		if rest[0].StartParenCount > 0 {
			end, ok := closingParenIdx(rest)
			if !ok {
				return appErrors.NewCriteriaError("no closing parenthesis found (row %d)", rest[0].RowNumber)
			}

			// Consume one parenthesis pair so the recursion does not find
			// it again.
			rest[0].StartParenCount--
			rest[end].EndParenCount--

			child.Criteria = rest[:end+1]
			if hasParens(child.Criteria) {
				if err := splitIntoGroups(child); err != nil {
					return err
				}
			}
			i += end + 1
		} else {
			end := nextStartParenIdx(rest)
			child.Criteria = rest[:end]
			i += end
		}

		child.Concat = normalizeConcat(child.Criteria[len(child.Criteria)-1].Concat)
		parent.Groups = append(parent.Groups, child)
	}

	return nil
}

// closingParenIdx finds the index whose cumulative start-minus-end count
// returns to zero, i.e. the row closing the parenthesis opened at index 0.
func closingParenIdx(criteria Criteria) (int, bool) {
	depth := 0
	for i, criterion := range criteria {
		depth += criterion.StartParenCount
		depth -= criterion.EndParenCount
		if depth == 0 {
			return i, true
		}
	}
	return 0, false
}

// nextStartParenIdx returns the index of the next criterion opening a
// parenthesis, or len(criteria) when none does. The flat run before it forms
// one group.
func nextStartParenIdx(criteria Criteria) int {
	for i, criterion := range criteria {
		if i > 0 && criterion.StartParenCount > 0 {
			return i
		}
	}
	return len(criteria)
}

func hasParens(criteria Criteria) bool {
	for _, criterion := range criteria {
		if criterion.StartParenCount > 0 || criterion.EndParenCount > 0 {
			return true
		}
	}
	return false
}

// compileGroup is the compilation pass: depth-first, leaves fold their
// criteria, internal nodes fold their children's conditions. Both folds use
// the same accumulator rule (attachCondition).
func compileGroup(group *LogicalGroup, now time.Time) error {
	if len(group.Groups) == 0 {
		cond, err := foldCriteria(group.Criteria, now)
		if err != nil {
			return err
		}
		group.Condition = cond
		return nil
	}

	for _, child := range group.Groups {
		if err := compileGroup(child, now); err != nil {
			return err
		}
	}

	group.Condition = foldGroups(group.Groups)
	return nil
}

func foldCriteria(criteria Criteria, now time.Time) (Condition, error) {
	var acc Condition
	if len(criteria) == 0 {
		return acc, nil
	}

	// The previous criterion's concatenation decides how the current atom
	// attaches; the first one uses its own.
	prev := normalizeConcat(criteria[0].Concat)
	lastApplied := prev

	for _, criterion := range criteria {
		atom, err := criterionCondition(criterion, now)
		if err != nil {
			return Condition{}, err
		}
		acc = attachCondition(prev, lastApplied, acc, atom)
		lastApplied = prev
		prev = normalizeConcat(criterion.Concat)
	}

	return acc, nil
}

func foldGroups(groups []*LogicalGroup) Condition {
	var acc Condition

	prev := groups[0].Concat
	lastApplied := prev

	for _, group := range groups {
		acc = attachCondition(prev, lastApplied, acc, group.Condition)
		lastApplied = prev
		prev = group.Concat
	}

	return acc
}
