package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IdentifierID is the stable integer handle assigned to an Identifier by its repository.
type IdentifierID uint32

// Identifier is the canonical, immutable representation of one distinct identifier string.
// Two occurrences of the same text always resolve to the same *Identifier, so pointer
// identity doubles as the deduplication key across files.
type Identifier struct {
	id       IdentifierID
	text     string
	lower    string
	boundary string // lowercased word-boundary characters, in order
	allLower bool
}

func newIdentifier(id IdentifierID, text string) *Identifier {
	lower := strings.ToLower(text)
	return &Identifier{
		id:       id,
		text:     text,
		lower:    lower,
		boundary: wordBoundaryChars(text),
		allLower: lower == text,
	}
}

// ID returns the repository handle for this identifier
func (i *Identifier) ID() IdentifierID { return i.id }

// Text returns the identifier text exactly as it was first seen
func (i *Identifier) Text() string { return i.text }

// Lower returns the lowercased identifier text
func (i *Identifier) Lower() string { return i.lower }

// WordBoundaryChars returns the lowercased characters that start a "word" inside the
// identifier: the first character, a character following '_', '-', '$' or a digit, and
// an uppercase character following a lowercase one (fooBar -> "fb", foo_bar -> "fb").
func (i *Identifier) WordBoundaryChars() string { return i.boundary }

// IsLower reports whether the identifier contains no uppercase characters
func (i *Identifier) IsLower() bool { return i.allLower }

func (i *Identifier) String() string { return i.text }

func wordBoundaryChars(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	prev := rune(-1)
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		text = text[size:]

		switch {
		case prev == -1:
			if !isSeparator(r) {
				b.WriteRune(unicode.ToLower(r))
			}
		case isSeparator(r):
		case isSeparator(prev):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) && unicode.IsDigit(prev):
			b.WriteRune(unicode.ToLower(r))
		}
		prev = r
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '$'
}
