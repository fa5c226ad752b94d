package grammar

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/hrygo/whenparse/plugin/temporal/entity"
	"github.com/hrygo/whenparse/server/timezone"
)

var meridiemPattern = regexp.MustCompile(`(?i)^[ap](\.?m\.?)?`)

var oclockForms = []string{"o'clock", "o’clock", "oclock"}

const fuzzyMinLength = 5

// Lexer splits text into tokens. Every non-space character of the input
// belongs to exactly one token; unclassified runs become unknown tokens.
type Lexer struct {
	// Fuzzy enables single-edit correction of misspelled month and weekday names.
	Fuzzy bool
}

// Tokenize lexes text into tokens in source order.
func (l Lexer) Tokenize(text string) []Token {
	var tokens []Token
	space := true
	prevDigits := false

	emit := func(start, end int, kinds Kind, lower string) {
		tokens = append(tokens, Token{
			Text:        text[start:end],
			Lower:       lower,
			Kinds:       kinds,
			Span:        entity.Span{Start: start, End: end},
			SpaceBefore: space,
		})
		space = false
	}

	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			space = true
			i += size
			continue

		case isDigit(r):
			end := i
			for end < len(text) && isDigit(rune(text[end])) {
				end++
			}
			emit(i, end, KindNumber, text[i:end])
			prevDigits = true
			i = end
			continue

		case unicode.IsLetter(r):
			end := l.word(text, i, prevDigits && !space, &tokens, space)
			space = false
			prevDigits = false
			i = end
			continue

		default:
			kinds := KindUnknown
			lower := string(r)
			switch r {
			case ',', '/', '-', ':', '.', '+':
				kinds = KindPunct
			case '–', '—':
				kinds = KindPunct
				lower = "-"
			}
			emit(i, i+size, kinds, lower)
			prevDigits = false
			i += size
		}
	}
	return tokens
}

// word lexes one letter run starting at i and appends its token.
func (l Lexer) word(text string, i int, afterDigits bool, tokens *[]Token, space bool) int {
	push := func(end int, kinds Kind, lower string, weak bool) int {
		*tokens = append(*tokens, Token{
			Text:        text[i:end],
			Lower:       lower,
			Kinds:       kinds,
			Span:        entity.Span{Start: i, End: end},
			SpaceBefore: space,
			Weak:        weak,
		})
		return end
	}

	rest := strings.ToLower(text[i:min(len(text), i+len("o’clock"))])
	for _, form := range oclockForms {
		if strings.HasPrefix(rest, form) && !letterAt(text, i+len(form)) {
			return push(i+len(form), KindOClock, "o'clock", false)
		}
	}

	if loc := meridiemPattern.FindStringIndex(text[i:]); loc != nil && !letterAt(text, i+loc[1]) {
		end := i + loc[1]
		lower := strings.ToLower(text[i:end])
		kinds := KindMeridiem
		if n, ok := numberWords[lower]; ok && n > 0 {
			kinds |= KindNumberWord
		}
		return push(end, kinds, lower, false)
	}

	end := i
	for end < len(text) {
		r, size := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsLetter(r) {
			break
		}
		end += size
	}

	// Hyphenated number words ("twenty-five") form a single token.
	if end < len(text) && text[end] == '-' && letterAt(text, end+1) {
		next := end + 1
		for next < len(text) {
			r, size := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsLetter(r) {
				break
			}
			next += size
		}
		if _, ok := numberWords[strings.ToLower(text[i:next])]; ok {
			return push(next, KindNumberWord, strings.ToLower(text[i:next]), false)
		}
	}

	raw := text[i:end]
	kinds, lower, weak := l.classify(raw, afterDigits)
	return push(end, kinds, lower, weak)
}

// classify assigns every kind a word can play.
func (l Lexer) classify(raw string, afterDigits bool) (Kind, string, bool) {
	lower := strings.ToLower(raw)
	var kinds Kind
	weak := false
	lowerCased := raw == lower

	if _, ok := months[lower]; ok {
		kinds |= KindMonth
		weak = weak || (commonWords[lower] && lowerCased)
	}
	if _, ok := weekdays[lower]; ok {
		kinds |= KindWeekday
		weak = weak || (commonWords[lower] && lowerCased)
	}
	if timezone.IsAbbreviation(raw) {
		kinds |= KindZone
	}
	if _, ok := modifiers[lower]; ok {
		kinds |= KindModifier
	}
	if _, ok := positions[lower]; ok {
		kinds |= KindPosition
	}
	if _, ok := units[lower]; ok {
		kinds |= KindUnit
	}
	if afterDigits && suffixes[lower] {
		kinds |= KindSuffix
	}
	if _, ok := dateNames[lower]; ok {
		kinds |= KindDateName
	}
	if _, ok := timeNames[lower]; ok {
		kinds |= KindTimeName
	}
	if datetimeNames[lower] {
		kinds |= KindDatetimeName
	}
	if keywords[lower] {
		kinds |= KindKeyword
	}
	if _, ok := numberWords[lower]; ok {
		kinds |= KindNumberWord
	}

	if kinds == 0 && l.Fuzzy && utf8.RuneCountInString(lower) >= fuzzyMinLength {
		if target, ok := closestName(lower); ok {
			kinds, lower, _ = l.classify(target, false)
			return kinds, lower, false
		}
	}
	if kinds == 0 {
		kinds = KindUnknown
	}
	return kinds, lower, weak
}

// closestName finds a month or weekday name within one edit of word.
func closestName(word string) (string, bool) {
	for _, target := range fuzzyTargets {
		if levenshtein.ComputeDistance(word, target) <= 1 {
			return target, true
		}
	}
	return "", false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func letterAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}
