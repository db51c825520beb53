package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/searchindex"
)

// catalogFrom joins each product to its category so category activity can
// be filtered in the same statement.
const catalogFrom = `products p JOIN categories c ON c.id = p.category_id`

// sqlBuilder accumulates positional arguments.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// where compiles set into a WHERE clause body. Boolean predicates become
// column references; every value is passed as an argument.
func (b *sqlBuilder) where(set catalog.PredicateSet) (string, error) {
	if len(set) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(set))
	for _, pred := range set {
		sql, err := b.predicate(pred)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}

func (b *sqlBuilder) predicate(pred catalog.Predicate) (string, error) {
	switch pr := pred.(type) {
	case catalog.Equals:
		switch pr.Field {
		case catalog.FieldActive:
			return boolColumn("p.is_active", pr.Value)
		case catalog.FieldCategoryActive:
			return boolColumn("c.is_active", pr.Value)
		case catalog.FieldCategoryID:
			return "p.category_id = " + b.arg(pr.Value), nil
		case catalog.FieldStock:
			return "p.stock = " + b.arg(pr.Value), nil
		case catalog.FieldSellerID:
			return "p.seller_id = " + b.arg(pr.Value), nil
		}
	case catalog.Range:
		op, err := sqlOp(pr.Op)
		if err != nil {
			return "", err
		}
		switch pr.Field {
		case catalog.FieldPrice:
			bound, ok := pr.Bound.(decimal.Decimal)
			if !ok {
				return "", fmt.Errorf("price bound has type %T", pr.Bound)
			}
			return fmt.Sprintf("p.price %s %s::numeric", op, b.arg(bound.String())), nil
		case catalog.FieldStock:
			return fmt.Sprintf("p.stock %s %s", op, b.arg(pr.Bound)), nil
		}
	case catalog.TextMatch:
		if pr.Query.Empty() {
			return "FALSE", nil
		}
		return "p.tsv @@ " + b.arg(pr.Query.String()) + "::tsquery", nil
	}
	return "", fmt.Errorf("unsupported predicate %s", pred)
}

func boolColumn(column string, v any) (string, error) {
	want, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("%s compared to %T", column, v)
	}
	if want {
		return column, nil
	}
	return "NOT " + column, nil
}

func sqlOp(op catalog.Op) (string, error) {
	switch op {
	case catalog.OpGTE:
		return ">=", nil
	case catalog.OpLTE:
		return "<=", nil
	case catalog.OpGT:
		return ">", nil
	}
	return "", fmt.Errorf("unsupported operator %d", op)
}

// score returns an expression summing the weight of every position of the
// query's positive lexemes, in tenths, matching searchindex.Score.
func (b *sqlBuilder) score(q *searchindex.Query) string {
	tenths := searchindex.WeightTenths()
	var cases strings.Builder
	for _, w := range []searchindex.Weight{searchindex.WeightA, searchindex.WeightB, searchindex.WeightC} {
		fmt.Fprintf(&cases, " WHEN '%s' THEN %d", w, tenths[w])
	}
	return fmt.Sprintf(`COALESCE((
			SELECT sum(CASE w%s ELSE %d END)
			FROM unnest(p.tsv) AS u(lexeme, positions, weights), unnest(u.weights) AS w
			WHERE u.lexeme = ANY(%s::text[])
		), 0)`, cases.String(), tenths[searchindex.WeightD], b.arg(q.PositiveLexemes()))
}

// orderBy returns the ORDER BY body for order.
func (b *sqlBuilder) orderBy(set catalog.PredicateSet, order catalog.Order) string {
	if order == catalog.OrderByRelevance {
		if tm, ok := set.Text(); ok {
			return b.score(tm.Query) + " DESC, p.id ASC"
		}
	}
	return "p.id ASC"
}
