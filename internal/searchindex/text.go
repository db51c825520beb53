// Package searchindex derives weighted search vectors from product text and
// evaluates web-search style queries against them. The text policy mirrors
// the PostgreSQL "english" configuration closely enough that a vector built
// here and stored as a tsvector matches the same tsquery in both places.
package searchindex

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxPosition is the largest word position a vector records. Later words
// share this position.
const MaxPosition = 16383

var (
	// ErrMalformedText is returned when product text cannot be tokenised.
	ErrMalformedText = errors.New("malformed text")

	// ErrUnsearchable is returned for a search string that cannot be read as text.
	ErrUnsearchable = errors.New("unsearchable query")
)

var folder = cases.Fold()

// token is one surviving word of a text: its stemmed lexeme and its 1-based
// position counted over all words, stop words included.
type token struct {
	lexeme string
	pos    int
}

// normalize applies the shared text policy: valid UTF-8 only, NFKC, then
// full case folding.
func normalize(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrMalformedText)
	}
	return folder.String(norm.NFKC.String(s)), nil
}

// splitWords splits on every rune that is neither a letter nor a digit.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem returns the lexeme for a normalised word, or "" for a stop word.
func stem(word string) (string, error) {
	if isStopWord(word) {
		return "", nil
	}
	lex, err := snowball.Stem(word, "english", false)
	if err != nil {
		return "", fmt.Errorf("%w: stem %q: %v", ErrMalformedText, word, err)
	}
	return lex, nil
}

// tokenize runs the full policy over s. The second return value is the last
// position consumed, stop words included.
func tokenize(s string) ([]token, int, error) {
	text, err := normalize(s)
	if err != nil {
		return nil, 0, err
	}

	words := splitWords(text)
	tokens := make([]token, 0, len(words))
	pos := 0
	for _, w := range words {
		if pos < MaxPosition {
			pos++
		}
		lex, err := stem(w)
		if err != nil {
			return nil, 0, err
		}
		if lex == "" {
			continue
		}
		tokens = append(tokens, token{lexeme: lex, pos: pos})
	}
	return tokens, pos, nil
}

// isStopWord reports whether w is in the english stop list used by
// PostgreSQL's english_stem dictionary.
func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

var stopWords = func() map[string]struct{} {
	list := `i me my myself we our ours ourselves you your yours yourself
	yourselves he him his himself she her hers herself it its itself they them
	their theirs themselves what which who whom this that these those am is are
	was were be been being have has had having do does did doing a an the and
	but if or because as until while of at by for with about against between
	into through during before after above below to from up down in out on off
	over under again further then once here there when where why how all any
	both each few more most other some such no nor not only own same so than
	too very s t can will just don should now`
	m := make(map[string]struct{}, 128)
	for _, w := range strings.Fields(list) {
		m[w] = struct{}{}
	}
	return m
}()
