package grammar

import (
	"strings"
	"time"

	"github.com/hrygo/whenparse/plugin/temporal/entity"
)

var months = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var weekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// commonWords are month and weekday spellings that are also ordinary words.
var commonWords = map[string]bool{
	"may":   true,
	"march": true,
	"mar":   true,
	"sat":   true,
	"sun":   true,
	"wed":   true,
}

// fuzzyTargets are the full names considered for misspelling correction.
var fuzzyTargets = []string{
	"january", "february", "march", "april", "june", "july", "august",
	"september", "october", "november", "december",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var modifiers = map[string]entity.Modifier{
	"next":     entity.ModNext,
	"upcoming": entity.ModUpcoming,
	"this":     entity.ModThis,
	"last":     entity.ModLast,
	"previous": entity.ModPrevious,
	"past":     entity.ModPast,
}

var positions = map[string]int{
	"first":  1,
	"second": 2,
	"third":  3,
	"fourth": 4,
	"fifth":  5,
	"last":   entity.PositionLast,
}

var units = map[string]entity.Unit{
	"s": entity.UnitSecond, "sec": entity.UnitSecond, "secs": entity.UnitSecond,
	"second": entity.UnitSecond, "seconds": entity.UnitSecond,
	"m": entity.UnitMinute, "min": entity.UnitMinute, "mins": entity.UnitMinute,
	"minute": entity.UnitMinute, "minutes": entity.UnitMinute,
	"h": entity.UnitHour, "hr": entity.UnitHour, "hrs": entity.UnitHour,
	"hour": entity.UnitHour, "hours": entity.UnitHour,
	"d": entity.UnitDay, "day": entity.UnitDay, "days": entity.UnitDay,
	"w": entity.UnitWeek, "wk": entity.UnitWeek, "wks": entity.UnitWeek,
	"week": entity.UnitWeek, "weeks": entity.UnitWeek,
	"mo": entity.UnitMonth, "mos": entity.UnitMonth,
	"month": entity.UnitMonth, "months": entity.UnitMonth,
	"y": entity.UnitYear, "yr": entity.UnitYear, "yrs": entity.UnitYear,
	"year": entity.UnitYear, "years": entity.UnitYear,
}

var dateNames = map[string]int{
	"today":     0,
	"tomorrow":  1,
	"tmw":       1,
	"tmrw":      1,
	"yesterday": -1,
}

var timeNames = map[string]int{
	"morning":   9,
	"noon":      12,
	"midday":    12,
	"afternoon": 15,
	"evening":   18,
	"night":     21,
	"midnight":  0,
}

var datetimeNames = map[string]bool{
	"now":     true,
	"tonight": true,
}

var keywords = map[string]bool{
	"at": true, "on": true, "to": true, "or": true, "and": true, "of": true,
	"the": true, "in": true, "ago": true, "from": true, "later": true,
	"through": true, "thru": true, "until": true, "till": true, "t": true,
}

var suffixes = map[string]bool{"st": true, "nd": true, "rd": true, "th": true}

var numberWords = buildNumberWords()

func buildNumberWords() map[string]int {
	ones := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	teens := []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
		"sixteen", "seventeen", "eighteen", "nineteen"}
	tens := []string{"twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

	words := map[string]int{"a": 1, "an": 1}
	for i, w := range ones {
		words[w] = i + 1
	}
	for i, w := range teens {
		words[w] = i + 10
	}
	for i, w := range tens {
		base := (i + 2) * 10
		words[w] = base
		for j, o := range ones {
			words[w+"-"+o] = base + j + 1
		}
	}
	return words
}

// Month returns the month number of a month name.
func Month(word string) (int, bool) {
	m, ok := months[strings.ToLower(word)]
	return m, ok
}

// Weekday returns the weekday of a weekday name.
func Weekday(word string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(word)]
	return wd, ok
}

// MeridiemOf returns the meridiem of "am", "p.m." and similar forms.
func MeridiemOf(word string) entity.Meridiem {
	w := strings.ToLower(word)
	if w == "" {
		return entity.MeridiemNone
	}
	switch w[0] {
	case 'a':
		return entity.AM
	case 'p':
		return entity.PM
	}
	return entity.MeridiemNone
}

// ModifierOf returns the modifier for "next", "last" and similar words.
func ModifierOf(word string) entity.Modifier {
	return modifiers[strings.ToLower(word)]
}

// PositionOf returns the ordinal of "first" .. "fifth", or PositionLast.
func PositionOf(word string) (int, bool) {
	p, ok := positions[strings.ToLower(word)]
	return p, ok
}

// UnitOf returns the duration unit of a unit word or abbreviation.
func UnitOf(word string) (entity.Unit, bool) {
	u, ok := units[strings.ToLower(word)]
	return u, ok
}

// DateNameOffset returns the day offset of "today", "tomorrow" and "yesterday".
func DateNameOffset(word string) (int, bool) {
	off, ok := dateNames[strings.ToLower(word)]
	return off, ok
}

// TimeNameHour returns the 24h hour of "noon", "evening" and similar words.
func TimeNameHour(word string) (int, bool) {
	h, ok := timeNames[strings.ToLower(word)]
	return h, ok
}
