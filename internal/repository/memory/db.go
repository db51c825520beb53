// Package memory is an in-process store for local runs and tests. It keeps
// an inverted index from lexeme to product ids that is updated on every
// write and consulted by text queries.
package memory

import (
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/searchindex"
)

// DB holds products and categories. The RWMutex protects the maps only;
// readers never wait on each other.
type DB struct {
	mu         sync.RWMutex
	products   map[int64]*domain.Product
	categories map[int64]*domain.Category
	slugs      map[string]int64
	postings   map[string]map[int64]struct{}

	lastProductID  int64
	lastCategoryID int64

	now func() time.Time
}

// NewDB creates an empty store.
func NewDB() *DB {
	return &DB{
		products:   make(map[int64]*domain.Product),
		categories: make(map[int64]*domain.Category),
		slugs:      make(map[string]int64),
		postings:   make(map[string]map[int64]struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// index adds id under every lexeme of v. Callers hold mu.
func (db *DB) index(id int64, v searchindex.Vector) {
	for lex := range v {
		ids, ok := db.postings[lex]
		if !ok {
			ids = make(map[int64]struct{})
			db.postings[lex] = ids
		}
		ids[id] = struct{}{}
	}
}

// unindex removes id from every lexeme of v. Callers hold mu.
func (db *DB) unindex(id int64, v searchindex.Vector) {
	for lex := range v {
		ids := db.postings[lex]
		delete(ids, id)
		if len(ids) == 0 {
			delete(db.postings, lex)
		}
	}
}

// Postings returns the ids indexed under lex, for inspection in tests.
func (db *DB) Postings(lex string) []int64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]int64, 0, len(db.postings[lex]))
	for id := range db.postings[lex] {
		out = append(out, id)
	}
	return out
}

func (db *DB) categoryActive(id int64) bool {
	c, ok := db.categories[id]
	return ok && c.IsActive
}
