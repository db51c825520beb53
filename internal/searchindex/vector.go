package searchindex

import (
	"sort"
	"strconv"
	"strings"
)

// maxPositionsPerLexeme bounds the positions kept for one lexeme.
const maxPositionsPerLexeme = 256

// Weight is a position label. Name words carry A and description words B.
type Weight byte

const (
	WeightD Weight = iota
	WeightC
	WeightB
	WeightA
)

// tenths returns the score contribution of one position in tenths, so
// A=1.0 B=0.4 C=0.2 D=0.1 compare exactly as integers.
func (w Weight) tenths() int {
	switch w {
	case WeightA:
		return 10
	case WeightB:
		return 4
	case WeightC:
		return 2
	default:
		return 1
	}
}

func (w Weight) String() string {
	switch w {
	case WeightA:
		return "A"
	case WeightB:
		return "B"
	case WeightC:
		return "C"
	default:
		return "D"
	}
}

// Position is one weighted occurrence of a lexeme.
type Position struct {
	Pos    int
	Weight Weight
}

// Vector maps each lexeme to its ascending positions.
type Vector map[string][]Position

// Derive computes the search vector of a product. Name lexemes are weighted
// A and description lexemes B; description positions continue after the
// last name lexeme. Derive is pure: equal inputs give equal vectors.
func Derive(name, description string) (Vector, error) {
	nameTokens, _, err := tokenize(name)
	if err != nil {
		return nil, err
	}
	descTokens, _, err := tokenize(description)
	if err != nil {
		return nil, err
	}

	v := make(Vector, len(nameTokens)+len(descTokens))
	v.add(nameTokens, WeightA, 0)
	v.add(descTokens, WeightB, v.maxPos())
	return v, nil
}

func (v Vector) add(tokens []token, w Weight, shift int) {
	for _, t := range tokens {
		pos := t.pos + shift
		if pos > MaxPosition {
			pos = MaxPosition
		}
		positions := v[t.lexeme]
		if len(positions) >= maxPositionsPerLexeme {
			continue
		}
		if n := len(positions); n > 0 && positions[n-1].Pos == pos {
			continue
		}
		v[t.lexeme] = append(positions, Position{Pos: pos, Weight: w})
	}
}

func (v Vector) maxPos() int {
	highest := 0
	for _, positions := range v {
		if n := len(positions); n > 0 && positions[n-1].Pos > highest {
			highest = positions[n-1].Pos
		}
	}
	return highest
}

// Lexemes returns the vector's lexemes in ascending byte order.
func (v Vector) Lexemes() []string {
	out := make([]string, 0, len(v))
	for lex := range v {
		out = append(out, lex)
	}
	sort.Strings(out)
	return out
}

// Has reports whether lex occurs in the vector.
func (v Vector) Has(lex string) bool {
	_, ok := v[lex]
	return ok
}

// String renders the vector as a PostgreSQL tsvector literal, for example
// 'leather':1A 'wallet':2A,5B. Weight D is written without a label.
func (v Vector) String() string {
	var b strings.Builder
	for i, lex := range v.Lexemes() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(quoteLexeme(lex))
		b.WriteByte(':')
		for j, p := range v[lex] {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(p.Pos))
			if p.Weight != WeightD {
				b.WriteString(p.Weight.String())
			}
		}
	}
	return b.String()
}

// quoteLexeme quotes a lexeme for tsvector and tsquery input.
func quoteLexeme(lex string) string {
	lex = strings.ReplaceAll(lex, `\`, `\\`)
	lex = strings.ReplaceAll(lex, `'`, `''`)
	return "'" + lex + "'"
}
