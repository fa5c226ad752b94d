package grammar

// Structural scores break ties between derivations covering the same tokens.
// A combination always outscores the list of its parts.
const (
	scoreDate     = 3
	scoreTime     = 3
	scoreHour     = 1
	scoreZone     = 1
	scoreDuration = 3
	scoreCombo    = 1
)

// expression := single | range | list
func (p *parser) expression(i int) []cand {
	return p.memoized(ruleExpression, i, func(i int) []cand {
		var out []cand
		for _, c := range p.single(i) {
			out = keep(out, c)
		}
		for _, c := range p.rangeExpr(i) {
			out = keep(out, c)
		}
		for _, c := range p.list(i, ruleListTailSingle, p.single) {
			out = keep(out, c)
		}
		for _, c := range p.list(i, ruleListTailRange, p.rangeExpr) {
			out = keep(out, c)
		}
		return out
	})
}

// single := datetime | duration | ambiguous
func (p *parser) single(i int) []cand {
	return p.memoized(ruleSingle, i, func(i int) []cand {
		var out []cand
		for _, c := range p.datetime(i) {
			out = keep(out, c)
		}
		for _, c := range p.duration(i) {
			out = keep(out, c)
		}
		if _, ok := p.number(i, 0, 9999, 4); ok {
			n := &AmbiguousNode{meta: p.meta(i, i+1, rank{amb: 1}), Num: p.at(i)}
			out = keep(out, cand{i + 1, n})
		}
		return out
	})
}

func (p *parser) rangeSep(i int) bool {
	return p.punct(i, "-") || p.word(i, "to", "through", "thru", "until", "till")
}

// range := single SEP single
func (p *parser) rangeExpr(i int) []cand {
	return p.memoized(ruleRange, i, func(i int) []cand {
		var out []cand
		for _, from := range p.single(i) {
			if !p.rangeSep(from.end) {
				continue
			}
			for _, to := range p.single(from.end + 1) {
				r := from.node.rank().add(to.node.rank())
				n := &RangeNode{meta: p.meta(i, to.end, r), From: from.node, To: to.node}
				out = keep(out, cand{to.end, n})
			}
		}
		return out
	})
}

// listSeps returns the position after each list separator starting at i.
func (p *parser) listSeps(i int) []int {
	var out []int
	if p.punct(i, ",") {
		out = append(out, i+1)
		if p.word(i+1, "or", "and") {
			out = append(out, i+2)
		}
	}
	if p.word(i, "or", "and") {
		out = append(out, i+1)
	}
	return out
}

// list := unit {SEP unit}+ where unit is either single or range.
func (p *parser) list(i int, tail ruleID, unit func(int) []cand) []cand {
	var out []cand
	for _, first := range unit(i) {
		for _, rest := range p.listTail(first.end, tail, unit) {
			items := rest.node.(*ListNode).Items
			all := make([]Node, 0, len(items)+1)
			all = append(all, first.node)
			all = append(all, items...)
			r := first.node.rank().add(rest.node.rank())
			out = keep(out, cand{rest.end, &ListNode{meta: p.meta(i, rest.end, r), Items: all}})
		}
	}
	return out
}

func (p *parser) listTail(j int, tail ruleID, unit func(int) []cand) []cand {
	return p.memoized(tail, j, func(j int) []cand {
		var out []cand
		for _, k := range p.listSeps(j) {
			for _, u := range unit(k) {
				one := &ListNode{meta: p.meta(k, u.end, u.node.rank()), Items: []Node{u.node}}
				out = keep(out, cand{u.end, one})
				for _, rest := range p.listTail(u.end, tail, unit) {
					items := append([]Node{u.node}, rest.node.(*ListNode).Items...)
					r := u.node.rank().add(rest.node.rank())
					out = keep(out, cand{rest.end, &ListNode{meta: p.meta(k, rest.end, r), Items: items}})
				}
			}
		}
		return out
	})
}

// joined returns j, plus the position after a "," or one of words at j.
func (p *parser) joined(j int, words ...string) []int {
	out := []int{j}
	if p.punct(j, ",") || p.word(j, words...) {
		out = append(out, j+1)
	}
	return out
}

// datetime := date [("at"|",")] timeish [zone] | time [zone] [("on"|",")] date
//
//	| date "T" clock [zone] | date [zone] | time [zone] | DATETIMENAME
func (p *parser) datetime(i int) []cand {
	return p.memoized(ruleDatetime, i, func(i int) []cand {
		var out []cand
		add := func(end int, n *DatetimeNode) {
			var r rank
			parts := 0
			if n.Date != nil {
				r = r.add(n.Date.r)
				parts++
			}
			if n.Time != nil {
				r = r.add(n.Time.r)
				parts++
			}
			if n.Zone != nil {
				r = r.add(n.Zone.r)
				parts++
			}
			if n.Name != nil {
				r.score += scoreDate
				parts++
			}
			if parts > 1 {
				r.score += scoreCombo
			}
			n.meta = p.meta(i, end, r)
			out = keep(out, cand{end, n})
		}

		for _, dc := range p.date(i) {
			d := dc.node.(*DateNode)
			add(dc.end, &DatetimeNode{Date: d})
			for _, zc := range p.zone(dc.end, false) {
				add(zc.end, &DatetimeNode{Date: d, Zone: zc.node.(*ZoneNode)})
			}
			if d.Form == DateYMD && p.adj(dc.end) && p.word(dc.end, "t") && p.adj(dc.end+1) {
				for _, tc := range p.time(dc.end + 1) {
					t := tc.node.(*TimeNode)
					if t.Form != TimeClock || t.Meridiem != nil {
						continue
					}
					add(tc.end, &DatetimeNode{Date: d, Time: t})
					for _, zc := range p.zone(tc.end, true) {
						add(zc.end, &DatetimeNode{Date: d, Time: t, Zone: zc.node.(*ZoneNode)})
					}
				}
			}
			for _, s := range p.joined(dc.end, "at") {
				for _, tc := range p.timeish(s) {
					t := tc.node.(*TimeNode)
					// "July 4" is a day of the month, never July at 4:00.
					if s == dc.end && t.Form == TimeHour && d.monthOnly() {
						continue
					}
					add(tc.end, &DatetimeNode{Date: d, Time: t})
					for _, zc := range p.zone(tc.end, false) {
						add(zc.end, &DatetimeNode{Date: d, Time: t, Zone: zc.node.(*ZoneNode)})
					}
				}
			}
		}

		for _, tc := range p.time(i) {
			t := tc.node.(*TimeNode)
			add(tc.end, &DatetimeNode{Time: t})
			type tail struct {
				end  int
				zone *ZoneNode
			}
			tails := []tail{{end: tc.end}}
			for _, zc := range p.zone(tc.end, false) {
				z := zc.node.(*ZoneNode)
				add(zc.end, &DatetimeNode{Time: t, Zone: z})
				tails = append(tails, tail{end: zc.end, zone: z})
			}
			for _, tl := range tails {
				for _, s := range p.joined(tl.end, "on") {
					for _, dc := range p.date(s) {
						add(dc.end, &DatetimeNode{Date: dc.node.(*DateNode), Time: t, Zone: tl.zone})
					}
				}
			}
		}

		// A bare hour leads a date only before "on" or a date name: "4 on Monday", "9 tomorrow".
		if h := p.hour(i); h != nil {
			if p.word(i+1, "on") {
				for _, dc := range p.date(i + 2) {
					add(dc.end, &DatetimeNode{Date: dc.node.(*DateNode), Time: h})
				}
			}
			if p.at(i + 1).Is(KindDateName) {
				for _, dc := range p.date(i + 1) {
					if d := dc.node.(*DateNode); d.Form == DateName {
						add(dc.end, &DatetimeNode{Date: d, Time: h})
					}
				}
			}
		}

		if t := p.at(i); t.Is(KindDatetimeName) {
			add(i+1, &DatetimeNode{Name: t})
			if t.Word("tonight") {
				for _, s := range p.joined(i+1, "at") {
					for _, tc := range p.timeish(s) {
						add(tc.end, &DatetimeNode{Name: t, Time: tc.node.(*TimeNode)})
					}
				}
			}
		}

		// "this morning", "this evening"
		if p.word(i, "this") && p.at(i+1).Is(KindTimeName) {
			d := &DateNode{meta: p.meta(i, i+1, rank{score: scoreDate}), Form: DateName, Name: p.at(i)}
			for _, tc := range p.time(i + 1) {
				if t := tc.node.(*TimeNode); t.Form == TimeName {
					add(tc.end, &DatetimeNode{Date: d, Time: t})
				}
			}
		}
		return out
	})
}

// date extends baseDate with weekday, name, modifier and ordinal forms.
func (p *parser) date(i int) []cand {
	return p.memoized(ruleDate, i, func(i int) []cand {
		out := append([]cand(nil), p.baseDate(i)...)
		base := rank{score: scoreDate}
		emit := func(end int, n DateNode, r rank) {
			n.meta = p.meta(i, end, r)
			out = keep(out, cand{end, &n})
		}

		t := p.at(i)
		if t.Is(KindModifier) && p.at(i+1).Is(KindWeekday) {
			emit(i+2, DateNode{Form: DateWeekday, Modifier: t, Weekday: p.at(i + 1)}, base)
		}
		if t.Is(KindModifier) && p.at(i+1).Is(KindMonth) {
			emit(i+2, DateNode{Form: DateModifiedMonth, Modifier: t, Month: p.at(i + 1)}, base)
		}
		if t.Is(KindWeekday) {
			if !t.Weak {
				emit(i+1, DateNode{Form: DateWeekday, Weekday: t}, base)
			}
			for _, s := range p.joined(i + 1) {
				for _, dc := range p.baseDate(s) {
					inner := dc.node.(*DateNode)
					r := inner.r.add(rank{score: scoreDate + scoreCombo})
					emit(dc.end, DateNode{Form: DateWeekdayDate, Weekday: t, Inner: inner}, r)
				}
			}
		}
		if t.Is(KindDateName) {
			emit(i+1, DateNode{Form: DateName, Name: t}, base)
		}

		if pos, end := p.position(i); pos != nil &&
			p.at(end).Is(KindWeekday) && p.word(end+1, "of") && p.at(end+2).Is(KindMonth) {
			n := DateNode{Form: DateNthWeekday, Position: pos, Weekday: p.at(end), Month: p.at(end + 2)}
			emit(end+3, n, base)
			if p.year4(end + 3) {
				n.Year = p.at(end + 3)
				emit(end+4, n, base)
			}
		}

		k := i
		if p.word(i, "the") {
			k++
		}
		if _, ok := p.number(k, 1, 31, 2); ok && p.at(k+1).Is(KindSuffix) {
			emit(k+2, DateNode{Form: DateDayOnly, Day: p.at(k)}, base)
		}
		return out
	})
}

// baseDate covers the explicit calendar forms: numeric, month name and day-month.
func (p *parser) baseDate(i int) []cand {
	return p.memoized(ruleBaseDate, i, func(i int) []cand {
		var out []cand
		emit := func(end int, n DateNode) {
			n.meta = p.meta(i, end, rank{score: scoreDate})
			out = keep(out, cand{end, &n})
		}

		for _, sep := range []string{"/", "-", "."} {
			if p.year4(i) && p.sepAt(i+1, sep) && p.monthNum(i+2) && p.adj(i+2) &&
				p.sepAt(i+3, sep) && p.dayNum(i+4) && p.adj(i+4) {
				emit(i+5, DateNode{Form: DateYMD, Year: p.at(i), Month: p.at(i + 2), Day: p.at(i + 4)})
			}
			if p.monthNum(i) && p.sepAt(i+1, sep) && p.dayNum(i+2) && p.adj(i+2) {
				n := DateNode{Form: DateNumeric, Month: p.at(i), Day: p.at(i + 2)}
				if sep != "." {
					emit(i+3, n)
				}
				if p.sepAt(i+3, sep) && p.yearNum(i+4) && p.adj(i+4) {
					n.Year = p.at(i + 4)
					emit(i+5, n)
				}
			}
		}

		if t := p.at(i); t.Is(KindMonth) {
			j := i + 1
			if p.sepAt(j, ".") {
				j++
			}
			if !t.Weak {
				emit(i+1, DateNode{Form: DateMonthName, Month: t})
			}
			k := j
			if p.punct(k, ",") {
				k++
			}
			if p.year4(k) {
				emit(k+1, DateNode{Form: DateMonthName, Month: t, Year: p.at(k)})
			}
			if p.dayNum(j) {
				e := j + 1
				if p.at(e).Is(KindSuffix) {
					e++
				}
				n := DateNode{Form: DateMonthName, Month: t, Day: p.at(j)}
				emit(e, n)
				k := e
				if p.punct(k, ",") {
					k++
				}
				if p.year4(k) {
					n.Year = p.at(k)
					emit(k+1, n)
				}
			}
		}

		if p.dayNum(i) {
			j := i + 1
			if p.at(j).Is(KindSuffix) {
				j++
			}
			if p.word(j, "of") {
				j++
			}
			if m := p.at(j); m.Is(KindMonth) {
				n := DateNode{Form: DateDayMonth, Day: p.at(i), Month: m}
				emit(j+1, n)
				k := j + 1
				if p.punct(k, ",") {
					k++
				}
				if p.year4(k) {
					n.Year = p.at(k)
					emit(k+1, n)
				}
			}
		}
		return out
	})
}

// time := H ":" MM [":" SS ["." F]] [MERIDIEM] | H ["o'clock"] MERIDIEM | H "o'clock" | TIMENAME
func (p *parser) time(i int) []cand {
	return p.memoized(ruleTime, i, func(i int) []cand {
		var out []cand
		emit := func(end int, n TimeNode) {
			n.meta = p.meta(i, end, rank{score: scoreTime})
			out = keep(out, cand{end, &n})
		}

		tok := p.at(i)
		if tok.Is(KindTimeName) {
			emit(i+1, TimeNode{Form: TimeName, Name: tok})
		}

		if hour, ok := p.number(i, 0, 23, 2); ok && p.sepAt(i+1, ":") && p.twoDigits(i+2, 59) && p.adj(i+2) {
			type variant struct {
				end  int
				node TimeNode
			}
			v := variant{end: i + 3, node: TimeNode{Form: TimeClock, Hour: tok, Minute: p.at(i + 2)}}
			variants := []variant{v}
			if p.sepAt(v.end, ":") && p.twoDigits(v.end+1, 59) && p.adj(v.end+1) {
				v.node.Second = p.at(v.end + 1)
				v.end += 2
				variants = append(variants, v)
				if p.sepAt(v.end, ".") && p.adj(v.end+1) && p.at(v.end+1).Digits() > 0 && p.at(v.end+1).Digits() <= 6 {
					v.node.Fraction = p.at(v.end + 1)
					v.end += 2
					variants = append(variants, v)
				}
			}
			for _, v := range variants {
				emit(v.end, v.node)
				if hour >= 1 && hour <= 12 && p.at(v.end).Is(KindMeridiem) {
					n := v.node
					n.Meridiem = p.at(v.end)
					emit(v.end+1, n)
				}
			}
		}

		if _, ok := p.number(i, 1, 12, 2); ok {
			j := i + 1
			if p.at(j).Is(KindOClock) {
				emit(j+1, TimeNode{Form: TimeOClock, Hour: tok})
				j++
			}
			if p.at(j).Is(KindMeridiem) {
				emit(j+1, TimeNode{Form: TimeMeridiem, Hour: tok, Meridiem: p.at(j)})
			}
		}
		return out
	})
}

// hour is a bare hour, accepted only where a time is structurally expected.
func (p *parser) hour(i int) *TimeNode {
	if _, ok := p.number(i, 0, 23, 2); !ok {
		return nil
	}
	return &TimeNode{meta: p.meta(i, i+1, rank{score: scoreHour}), Form: TimeHour, Hour: p.at(i)}
}

// timeish := time | hour
func (p *parser) timeish(i int) []cand {
	out := append([]cand(nil), p.time(i)...)
	if h := p.hour(i); h != nil {
		out = keep(out, cand{i + 1, h})
	}
	return out
}

// zone := TZABBR [("+"|"-") NUM [":" NUM]]; ISO datetimes also take "Z", ±hhmm and ±hh:mm.
func (p *parser) zone(i int, iso bool) []cand {
	var out []cand
	emit := func(end int, n ZoneNode) {
		n.meta = p.meta(i, end, rank{score: scoreZone})
		out = keep(out, cand{end, &n})
	}

	t := p.at(i)
	if t.Is(KindZone) {
		emit(i+1, ZoneNode{Abbr: t})
		if t.Word("utc", "gmt") && p.sign(i+1) && p.adj(i+1) && p.adj(i+2) {
			sign, h := p.at(i+1), p.at(i+2)
			if (h.Digits() == 1 || h.Digits() == 2 || h.Digits() == 4) && offsetValid(h, nil) {
				emit(i+3, ZoneNode{Abbr: t, Sign: sign, Hours: h})
				if h.Digits() <= 2 && p.sepAt(i+3, ":") && p.adj(i+4) && p.at(i+4).Digits() == 2 && offsetValid(h, p.at(i+4)) {
					emit(i+5, ZoneNode{Abbr: t, Sign: sign, Hours: h, Minutes: p.at(i + 4)})
				}
			}
		}
	}

	if iso && p.adj(i) {
		if t != nil && t.Text == "Z" {
			emit(i+1, ZoneNode{Abbr: t})
		}
		if p.sign(i) && p.adj(i+1) {
			h := p.at(i + 1)
			if h.Digits() == 4 && offsetValid(h, nil) {
				emit(i+2, ZoneNode{Sign: t, Hours: h})
			}
			if h.Digits() == 2 && p.sepAt(i+2, ":") && p.adj(i+3) && p.at(i+3).Digits() == 2 && offsetValid(h, p.at(i+3)) {
				emit(i+4, ZoneNode{Sign: t, Hours: h, Minutes: p.at(i + 3)})
			}
		}
	}
	return out
}

// duration := ["in"] part {[","|"and"] part} ["ago" | "later" | "from now"]
func (p *parser) duration(i int) []cand {
	return p.memoized(ruleDuration, i, func(i int) []cand {
		var out []cand
		start := i
		var lead *Token
		if p.word(i, "in") {
			lead = p.at(i)
			start++
		}
		emit := func(end int, parts []DurationPartNode, future, past *Token) {
			n := &DurationNode{Parts: parts, Future: future, Past: past}
			n.meta = p.meta(i, end, rank{score: scoreDuration * len(parts) * len(parts)})
			out = keep(out, cand{end, n})
		}

		var walk func(k int, parts []DurationPartNode)
		walk = func(k int, parts []DurationPartNode) {
			part, end, ok := p.durationPart(k)
			if !ok {
				return
			}
			parts = append(parts[:len(parts):len(parts)], part)
			emit(end, parts, lead, nil)
			if p.word(end, "ago") {
				emit(end+1, parts, lead, p.at(end))
			}
			future := lead
			if p.word(end, "later") {
				if future == nil {
					future = p.at(end)
				}
				emit(end+1, parts, future, nil)
			}
			if p.word(end, "from") && p.word(end+1, "now") {
				if future == nil {
					future = p.at(end)
				}
				emit(end+2, parts, future, nil)
			}

			walk(end, parts)
			if p.punct(end, ",") {
				walk(end+1, parts)
				if p.word(end+1, "and") {
					walk(end+2, parts)
				}
			}
			if p.word(end, "and") {
				walk(end+1, parts)
			}
		}
		walk(start, nil)
		return out
	})
}

func (p *parser) durationPart(k int) (DurationPartNode, int, bool) {
	amount := p.at(k)
	if amount.Is(KindNumber) {
		if amount.Digits() > 6 {
			return DurationPartNode{}, 0, false
		}
	} else if !amount.Is(KindNumberWord) {
		return DurationPartNode{}, 0, false
	}
	unit := p.at(k + 1)
	if !unit.Is(KindUnit) {
		return DurationPartNode{}, 0, false
	}
	return DurationPartNode{Amount: amount, Unit: unit}, k + 2, true
}

// position := POSITION | NUM SUFFIX, returning the token and the index after it.
func (p *parser) position(i int) (*Token, int) {
	t := p.at(i)
	if t.Is(KindPosition) {
		return t, i + 1
	}
	if _, ok := p.number(i, 1, 5, 1); ok && p.at(i+1).Is(KindSuffix) {
		return t, i + 2
	}
	return nil, i
}

func (p *parser) sepAt(i int, s string) bool {
	return p.punct(i, s) && p.adj(i)
}

func (p *parser) sign(i int) bool {
	return p.punct(i, "+") || p.punct(i, "-")
}

func (p *parser) year4(i int) bool {
	return p.at(i).Digits() == 4
}

func (p *parser) yearNum(i int) bool {
	d := p.at(i).Digits()
	return d == 2 || d == 4
}

func (p *parser) monthNum(i int) bool {
	_, ok := p.number(i, 1, 12, 2)
	return ok
}

func (p *parser) dayNum(i int) bool {
	_, ok := p.number(i, 1, 31, 2)
	return ok
}

func (p *parser) twoDigits(i, max int) bool {
	if p.at(i).Digits() != 2 {
		return false
	}
	_, ok := p.number(i, 0, max, 2)
	return ok
}

// offsetValid checks an offset of "h", "hh" or "hhmm" plus optional minutes.
func offsetValid(hours, minutes *Token) bool {
	h, ok := hours.Num()
	if !ok {
		return false
	}
	m := 0
	if hours.Digits() == 4 {
		h, m = h/100, h%100
	}
	if minutes != nil {
		if m, ok = minutes.Num(); !ok {
			return false
		}
	}
	return h <= 14 && m <= 59
}
