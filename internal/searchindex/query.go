package searchindex

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// term is one query operand. A single-lexeme term has one entry; a phrase
// has several, with offsets relative to the first lexeme.
type term struct {
	lexemes []string
	offsets []int
	negated bool
}

// Query is a parsed search string: a disjunction of conjunctive groups.
type Query struct {
	raw    string
	groups [][]term
}

// ParseQuery parses a web-search style string. Bare words are ANDed,
// "quoted words" form a phrase, the word or separates alternatives, and a
// leading - negates a term. A string made only of stop words or punctuation
// parses to an empty query that matches nothing. Invalid UTF-8 returns an
// error wrapping ErrUnsearchable.
func ParseQuery(raw string) (*Query, error) {
	if !utf8.ValidString(raw) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrUnsearchable)
	}
	text, err := normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsearchable, err)
	}

	q := &Query{raw: raw}
	var group []term
	for _, rt := range lexQuery(text) {
		if rt.text == "or" && !rt.quoted && !rt.negated {
			if len(group) > 0 {
				q.groups = append(q.groups, group)
				group = nil
			}
			continue
		}
		t, ok, err := buildTerm(rt)
		if err != nil {
			return nil, err
		}
		if ok {
			group = append(group, t)
		}
	}
	if len(group) > 0 {
		q.groups = append(q.groups, group)
	}
	return q, nil
}

// Empty reports whether the query has no searchable terms.
func (q *Query) Empty() bool { return len(q.groups) == 0 }

type rawTerm struct {
	text    string
	quoted  bool
	negated bool
}

// lexQuery splits normalised input into raw terms. An unterminated quote
// runs to the end of the input.
func lexQuery(s string) []rawTerm {
	var out []rawTerm
	rs := []rune(s)
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}

		rt := rawTerm{}
		if rs[i] == '-' {
			rt.negated = true
			i++
		}

		start := i
		if i < len(rs) && rs[i] == '"' {
			rt.quoted = true
			i++
			start = i
			for i < len(rs) && rs[i] != '"' {
				i++
			}
			rt.text = string(rs[start:i])
			if i < len(rs) {
				i++
			}
		} else {
			for i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != '"' {
				i++
			}
			rt.text = string(rs[start:i])
		}

		if rt.text != "" {
			out = append(out, rt)
		}
	}
	return out
}

// buildTerm stems the words of rt. Stop words are dropped but keep their
// place in a phrase. ok is false when nothing survives.
func buildTerm(rt rawTerm) (term, bool, error) {
	t := term{negated: rt.negated}
	first := -1
	for i, w := range splitWords(rt.text) {
		lex, err := stem(w)
		if err != nil {
			return term{}, false, fmt.Errorf("%w: %v", ErrUnsearchable, err)
		}
		if lex == "" {
			continue
		}
		if first < 0 {
			first = i
		}
		t.lexemes = append(t.lexemes, lex)
		t.offsets = append(t.offsets, i-first)
	}
	return t, len(t.lexemes) > 0, nil
}

// Matches reports whether v satisfies the query.
func (q *Query) Matches(v Vector) bool {
	for _, g := range q.groups {
		if groupMatches(g, v) {
			return true
		}
	}
	return false
}

func groupMatches(g []term, v Vector) bool {
	for _, t := range g {
		if t.matches(v) == t.negated {
			return false
		}
	}
	return true
}

func (t term) matches(v Vector) bool {
	head := v[t.lexemes[0]]
	if len(t.lexemes) == 1 {
		return len(head) > 0
	}
	for _, p := range head {
		found := true
		for i := 1; i < len(t.lexemes); i++ {
			if !hasPosition(v[t.lexemes[i]], p.Pos+t.offsets[i]) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func hasPosition(positions []Position, pos int) bool {
	i := sort.Search(len(positions), func(i int) bool { return positions[i].Pos >= pos })
	return i < len(positions) && positions[i].Pos == pos
}

// PositiveLexemes returns the distinct lexemes of all non-negated terms in
// ascending order. These are the lexemes a match is scored on.
func (q *Query) PositiveLexemes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range q.groups {
		for _, t := range g {
			if t.negated {
				continue
			}
			for _, lex := range t.lexemes {
				if _, ok := seen[lex]; !ok {
					seen[lex] = struct{}{}
					out = append(out, lex)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// Candidates returns lexemes whose postings together cover every possible
// match: one lexeme from a positive term of each group. An empty query has
// no candidates and is bounded. bounded is false
// when some group consists only of negations, in which case any vector may
// match.
func (q *Query) Candidates() (lexemes []string, bounded bool) {
	for _, g := range q.groups {
		lex := ""
		for _, t := range g {
			if !t.negated {
				lex = t.lexemes[0]
				break
			}
		}
		if lex == "" {
			return nil, false
		}
		lexemes = append(lexemes, lex)
	}
	return lexemes, true
}

// Raw returns the string the query was parsed from.
func (q *Query) Raw() string { return q.raw }

// String renders the query as a PostgreSQL tsquery literal, for example
// 'leather' & 'wallet' | !('red' <-> 'bag'). An empty query renders as "".
func (q *Query) String() string {
	groups := make([]string, len(q.groups))
	for i, g := range q.groups {
		terms := make([]string, len(g))
		for j, t := range g {
			terms[j] = t.String()
		}
		groups[i] = strings.Join(terms, " & ")
	}
	return strings.Join(groups, " | ")
}

func (t term) String() string {
	var b strings.Builder
	if t.negated {
		b.WriteByte('!')
	}
	if len(t.lexemes) == 1 {
		b.WriteString(quoteLexeme(t.lexemes[0]))
		return b.String()
	}
	b.WriteByte('(')
	for i, lex := range t.lexemes {
		if i > 0 {
			if d := t.offsets[i] - t.offsets[i-1]; d == 1 {
				b.WriteString(" <-> ")
			} else {
				b.WriteString(" <" + strconv.Itoa(d) + "> ")
			}
		}
		b.WriteString(quoteLexeme(lex))
	}
	b.WriteByte(')')
	return b.String()
}
