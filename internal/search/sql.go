// internal/search/sql.go
package search

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	appErrors "github.com/centrocomm/messaging-backend/internal/errors"
)

// SQL renders the condition as a Postgres WHERE clause with positional args.
// argOffset is the number of placeholders already used by the surrounding
// query, so a caller with two existing args passes 2 and gets $3, $4, ...
// The universal match renders as TRUE.
func (c Condition) SQL(argOffset int) (string, []any, error) {
	b := &sqlBuilder{argPos: argOffset}
	clause, err := b.render(c)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type sqlBuilder struct {
	argPos int
	args   []any
}

func (b *sqlBuilder) placeholder(value any) string {
	b.argPos++
	b.args = append(b.args, value)
	return fmt.Sprintf("$%d", b.argPos)
}

func (b *sqlBuilder) render(c Condition) (string, error) {
	if c.IsZero() {
		return "TRUE", nil
	}

	if len(c.And) > 0 {
		return b.renderLogical("AND", c.And)
	}
	if len(c.Or) > 0 {
		return b.renderLogical("OR", c.Or)
	}

	return b.renderAtom(c)
}

func (b *sqlBuilder) renderLogical(op string, children []Condition) (string, error) {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		clause, err := b.render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")", nil
}

func (b *sqlBuilder) renderAtom(c Condition) (string, error) {
	column, err := columnFor(c.Attr)
	if err != nil {
		return "", err
	}

	switch c.Op {
	case "eq":
		return fmt.Sprintf("%s = %s", column, b.placeholder(c.Value)), nil
	case "ne":
		return fmt.Sprintf("%s <> %s", column, b.placeholder(c.Value)), nil
	case "gt":
		return fmt.Sprintf("%s > %s", column, b.placeholder(c.Value)), nil
	case "lt":
		return fmt.Sprintf("%s < %s", column, b.placeholder(c.Value)), nil
	case "gte":
		return fmt.Sprintf("%s >= %s", column, b.placeholder(c.Value)), nil
	case "lte":
		return fmt.Sprintf("%s <= %s", column, b.placeholder(c.Value)), nil
	case "in":
		return fmt.Sprintf("%s = ANY(%s)", column, b.placeholder(pq.Array(c.Values))), nil
	case "nin":
		return fmt.Sprintf("NOT (%s = ANY(%s))", column, b.placeholder(pq.Array(c.Values))), nil
	case "contains":
		pattern := "%" + fmt.Sprintf("%v", c.Value) + "%"
		return fmt.Sprintf("%s ILIKE %s", column, b.placeholder(pattern)), nil
	}

	return "", appErrors.NewCriteriaError("condition operator not supported %q", c.Op)
}

// columnFor maps a criteria attribute name onto its customer column. The org
// attributes come from the limiter; everything else is the camelCase
// attribute converted to snake_case (birthdateNoYear > birthdate_no_year).
func columnFor(attr string) (string, error) {
	switch attr {
	case "memberOrg":
		return "member_org_id", nil
	case "holdingOrg":
		return "holding_org_id", nil
	case "":
		return "", appErrors.NewCriteriaError("condition attribute is empty")
	}

	var sb strings.Builder
	for _, r := range attr {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
			sb.WriteRune(r - 'A' + 'a')
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
			continue
		}
		return "", appErrors.NewCriteriaError("condition attribute %q has unsupported characters", attr)
	}
	return sb.String(), nil
}
