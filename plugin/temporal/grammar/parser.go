package grammar

import "github.com/hrygo/whenparse/plugin/temporal/entity"

// Forest is the outcome of parsing one token stream: the chosen top-level
// expressions in source order, and the tokens no expression covers.
type Forest struct {
	Tokens      []Token
	Expressions []Node
	Unknown     []Token
}

// Parse finds the best segmentation of tokens into expressions and unknown
// tokens. Parsing never fails; text that matches no production is unknown.
func Parse(tokens []Token) *Forest {
	p := &parser{toks: tokens, memo: make(map[memoKey][]cand)}
	return p.segment()
}

type ruleID int

const (
	ruleSingle ruleID = iota
	ruleRange
	ruleExpression
	ruleDatetime
	ruleDate
	ruleBaseDate
	ruleTime
	ruleDuration
	ruleListTailSingle
	ruleListTailRange
)

type memoKey struct {
	rule  ruleID
	start int
}

// cand is one derivation of a rule from a start position to end (exclusive).
type cand struct {
	end  int
	node Node
}

type parser struct {
	toks []Token
	memo map[memoKey][]cand
}

// memoized computes each (rule, start) pair once.
func (p *parser) memoized(rule ruleID, i int, fn func(int) []cand) []cand {
	key := memoKey{rule, i}
	if c, ok := p.memo[key]; ok {
		return c
	}
	p.memo[key] = nil
	c := fn(i)
	p.memo[key] = c
	return c
}

// keep adds c, keeping a single best derivation per end position.
func keep(cands []cand, c cand) []cand {
	for k := range cands {
		if cands[k].end == c.end {
			if c.node.rank().better(cands[k].node.rank()) {
				cands[k] = c
			}
			return cands
		}
	}
	return append(cands, c)
}

func (p *parser) at(i int) *Token {
	if i < 0 || i >= len(p.toks) {
		return nil
	}
	return &p.toks[i]
}

// adj reports whether token i exists and touches the token before it.
func (p *parser) adj(i int) bool {
	t := p.at(i)
	return t != nil && !t.SpaceBefore
}

func (p *parser) punct(i int, s string) bool {
	t := p.at(i)
	return t.Is(KindPunct) && t.Lower == s
}

func (p *parser) word(i int, words ...string) bool {
	return p.at(i).Word(words...)
}

// number returns the value of a digit token within [lo, hi] of at most maxDigits digits.
func (p *parser) number(i, lo, hi, maxDigits int) (int, bool) {
	t := p.at(i)
	if !t.Is(KindNumber) || len(t.Text) > maxDigits {
		return 0, false
	}
	n, ok := t.Num()
	return n, ok && n >= lo && n <= hi
}

func (p *parser) span(i, end int) entity.Span {
	return entity.Span{Start: p.toks[i].Span.Start, End: p.toks[end-1].Span.End}
}

func (p *parser) meta(i, end int, r rank) meta {
	return meta{span: p.span(i, end), r: r}
}

// segmentation is the best cover of a suffix of the token stream.
type segmentation struct {
	covered int
	exprs   int
	r       rank
	node    Node
	next    int
}

// better orders segmentations by tokens covered, then fewer expressions,
// then fewer ambiguous leaves, then structural score.
func (s segmentation) better(o segmentation) bool {
	if s.covered != o.covered {
		return s.covered > o.covered
	}
	if s.exprs != o.exprs {
		return s.exprs < o.exprs
	}
	return s.r.better(o.r)
}

func (p *parser) segment() *Forest {
	n := len(p.toks)
	best := make([]segmentation, n+1)
	best[n] = segmentation{next: n}
	for i := n - 1; i >= 0; i-- {
		top := best[i+1]
		top.node, top.next = nil, i+1
		for _, c := range p.expression(i) {
			rest := best[c.end]
			s := segmentation{
				covered: rest.covered + c.end - i,
				exprs:   rest.exprs + 1,
				r:       rest.r.add(c.node.rank()),
				node:    c.node,
				next:    c.end,
			}
			if s.better(top) {
				top = s
			}
		}
		best[i] = top
	}

	f := &Forest{Tokens: p.toks}
	for i := 0; i < n; {
		s := best[i]
		if s.node == nil {
			f.Unknown = append(f.Unknown, p.toks[i])
		} else {
			f.Expressions = append(f.Expressions, s.node)
		}
		i = s.next
	}
	return f
}
