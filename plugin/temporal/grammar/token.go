package grammar

import (
	"strconv"
	"strings"

	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

// Kind is a set of terminal kinds. A token may belong to several kinds at
// once ("second" is both a position and a duration unit); the parser picks
// the role from context.
type Kind uint32

const (
	KindNumber Kind = 1 << iota
	KindNumberWord
	KindMonth
	KindWeekday
	KindMeridiem
	KindZone
	KindModifier
	KindPosition
	KindUnit
	KindSuffix
	KindDateName
	KindTimeName
	KindDatetimeName
	KindOClock
	KindPunct
	KindKeyword
	KindUnknown
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindNumber, "number"},
	{KindNumberWord, "numberword"},
	{KindMonth, "month"},
	{KindWeekday, "weekday"},
	{KindMeridiem, "meridiem"},
	{KindZone, "zone"},
	{KindModifier, "modifier"},
	{KindPosition, "position"},
	{KindUnit, "unit"},
	{KindSuffix, "suffix"},
	{KindDateName, "datename"},
	{KindTimeName, "timename"},
	{KindDatetimeName, "datetimename"},
	{KindOClock, "oclock"},
	{KindPunct, "punct"},
	{KindKeyword, "keyword"},
	{KindUnknown, "unknown"},
}

func (k Kind) String() string {
	var names []string
	for _, kn := range kindNames {
		if k&kn.kind != 0 {
			names = append(names, kn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Token is one lexical unit of the input.
type Token struct {
	Text string
	// Lower is the lower-cased text used for vocabulary lookups.
	Lower string
	Kinds Kind
	Span  entity.Span
	// SpaceBefore reports whether whitespace separates this token from the previous one.
	SpaceBefore bool
	// Weak marks a month or weekday name that is also a common English word
	// ("may", "sat") written in lower case. Weak names need a structural cue.
	Weak bool
}

// Is reports whether the token belongs to any of the given kinds.
func (t *Token) Is(k Kind) bool {
	return t != nil && t.Kinds&k != 0
}

// Word reports whether the token's lower-cased text is one of words.
func (t *Token) Word(words ...string) bool {
	if t == nil {
		return false
	}
	for _, w := range words {
		if t.Lower == w {
			return true
		}
	}
	return false
}

// Num returns the integer value of a digit token or a number word.
func (t *Token) Num() (int, bool) {
	if t == nil {
		return 0, false
	}
	if t.Is(KindNumber) {
		n, err := strconv.Atoi(t.Text)
		return n, err == nil
	}
	if t.Is(KindNumberWord) {
		n, ok := numberWords[t.Lower]
		return n, ok
	}
	return 0, false
}

// Digits returns the number of characters of a digit token, or 0.
func (t *Token) Digits() int {
	if !t.Is(KindNumber) {
		return 0
	}
	return len(t.Text)
}
