// Package catalog turns a QueryRequest into typed predicates and runs them
// as a counted, ordered, paginated query against a Store.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/searchindex"
)

// Field names a filterable product attribute.
type Field int

const (
	FieldActive Field = iota + 1
	FieldCategoryActive
	FieldCategoryID
	FieldPrice
	FieldStock
	FieldSellerID
)

func (f Field) String() string {
	switch f {
	case FieldActive:
		return "is_active"
	case FieldCategoryActive:
		return "category_active"
	case FieldCategoryID:
		return "category_id"
	case FieldPrice:
		return "price"
	case FieldStock:
		return "stock"
	case FieldSellerID:
		return "seller_id"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Op is a range comparison.
type Op int

const (
	OpGTE Op = iota + 1
	OpLTE
	OpGT
)

func (o Op) String() string {
	switch o {
	case OpGTE:
		return ">="
	case OpLTE:
		return "<="
	case OpGT:
		return ">"
	default:
		return "?"
	}
}

// Predicate is one independent filter condition. The concrete types are
// Equals, Range and TextMatch.
type Predicate interface {
	isPredicate()
	String() string
}

// Equals holds when Field equals Value. Value is a bool for the activity
// fields, an int64 for identifiers and an int for stock.
type Equals struct {
	Field Field
	Value any
}

// Range holds when Field Op Bound. Bound is a decimal.Decimal for price and
// an int for stock.
type Range struct {
	Field Field
	Op    Op
	Bound any
}

// TextMatch holds when the product's search vector satisfies Query.
type TextMatch struct {
	Query *searchindex.Query
}

func (Equals) isPredicate()    {}
func (Range) isPredicate()     {}
func (TextMatch) isPredicate() {}

func (e Equals) String() string { return fmt.Sprintf("%s = %v", e.Field, e.Value) }
func (r Range) String() string  { return fmt.Sprintf("%s %s %v", r.Field, r.Op, r.Bound) }
func (t TextMatch) String() string {
	return "search @@ " + t.Query.String()
}

// PredicateSet is an ordered conjunction of predicates.
type PredicateSet []Predicate

// Text returns the set's text predicate, if any.
func (s PredicateSet) Text() (TextMatch, bool) {
	for _, p := range s {
		if tm, ok := p.(TextMatch); ok {
			return tm, true
		}
	}
	return TextMatch{}, false
}

func (s PredicateSet) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// Compose builds the predicate set for req in a fixed order: activity,
// category activity, category, price bounds, stock, seller, text. It does
// not check that MinPrice <= MaxPrice or that the category exists; a
// missing category simply matches nothing, as does a search string with no
// searchable words. Invalid UTF-8 in the search string returns an error
// wrapping searchindex.ErrUnsearchable.
func Compose(req domain.QueryRequest) (PredicateSet, error) {
	set := PredicateSet{
		Equals{Field: FieldActive, Value: true},
		Equals{Field: FieldCategoryActive, Value: true},
	}

	if req.CategoryID != nil {
		set = append(set, Equals{Field: FieldCategoryID, Value: *req.CategoryID})
	}
	if req.MinPrice != nil {
		set = append(set, Range{Field: FieldPrice, Op: OpGTE, Bound: *req.MinPrice})
	}
	if req.MaxPrice != nil {
		set = append(set, Range{Field: FieldPrice, Op: OpLTE, Bound: *req.MaxPrice})
	}
	if req.InStock != nil {
		if *req.InStock {
			set = append(set, Range{Field: FieldStock, Op: OpGT, Bound: 0})
		} else {
			set = append(set, Equals{Field: FieldStock, Value: 0})
		}
	}
	if req.SellerID != nil {
		set = append(set, Equals{Field: FieldSellerID, Value: *req.SellerID})
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		q, err := searchindex.ParseQuery(search)
		if err != nil {
			return nil, err
		}
		set = append(set, TextMatch{Query: q})
	}

	return set, nil
}

// Eval reports whether p satisfies the set. categoryActive is the activity
// of p's category. Stores that filter in process use it; SQL stores compile
// the set instead.
func (s PredicateSet) Eval(p *domain.Product, categoryActive bool) bool {
	for _, pred := range s {
		if !evalOne(pred, p, categoryActive) {
			return false
		}
	}
	return true
}

func evalOne(pred Predicate, p *domain.Product, categoryActive bool) bool {
	switch pr := pred.(type) {
	case Equals:
		switch pr.Field {
		case FieldActive:
			return p.IsActive == pr.Value.(bool)
		case FieldCategoryActive:
			return categoryActive == pr.Value.(bool)
		case FieldCategoryID:
			return p.CategoryID == pr.Value.(int64)
		case FieldStock:
			return p.Stock == pr.Value.(int)
		case FieldSellerID:
			return p.SellerID == pr.Value.(int64)
		}
	case Range:
		switch pr.Field {
		case FieldPrice:
			return compare(p.Price.Cmp(pr.Bound.(decimal.Decimal)), pr.Op)
		case FieldStock:
			bound := pr.Bound.(int)
			c := 0
			if p.Stock < bound {
				c = -1
			} else if p.Stock > bound {
				c = 1
			}
			return compare(c, pr.Op)
		}
	case TextMatch:
		return pr.Query.Matches(p.Search)
	}
	return false
}

func compare(c int, op Op) bool {
	switch op {
	case OpGTE:
		return c >= 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	}
	return false
}
