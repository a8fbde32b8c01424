package search

import "github.com/vanderheijden86/famtree/pkg/model"

// Picker is a one-shot search box: typing narrows the suggestion list and
// selecting a suggestion clears both the term and the list.
type Picker struct {
	index   *Index
	term    string
	results []model.Member
	cursor  int
}

// NewPicker creates a picker over members.
func NewPicker(members []model.Member) *Picker {
	return &Picker{index: NewIndex(members)}
}

// SetMembers swaps in a new snapshot and re-runs the current term.
func (p *Picker) SetMembers(members []model.Member) {
	p.index = NewIndex(members)
	p.refresh()
}

// SetTerm updates the term and recomputes suggestions.
func (p *Picker) SetTerm(term string) {
	if term == p.term {
		return
	}
	p.term = term
	p.cursor = 0
	p.refresh()
}

func (p *Picker) refresh() {
	p.results = p.index.Search(p.term)
	if p.cursor >= len(p.results) {
		p.cursor = max(0, len(p.results)-1)
	}
}

// Term returns the current term.
func (p *Picker) Term() string { return p.term }

// Results returns the current suggestions.
func (p *Picker) Results() []model.Member { return p.results }

// Cursor returns the highlighted suggestion index.
func (p *Picker) Cursor() int { return p.cursor }

// Move shifts the cursor by delta, clamped to the suggestion list.
func (p *Picker) Move(delta int) {
	if len(p.results) == 0 {
		p.cursor = 0
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.results)-1)
}

// Current returns the suggestion under the cursor.
func (p *Picker) Current() (model.Member, bool) {
	if p.cursor < 0 || p.cursor >= len(p.results) {
		return model.Member{}, false
	}
	return p.results[p.cursor], true
}

// Select picks suggestion i and resets the picker.
func (p *Picker) Select(i int) (model.Member, bool) {
	if i < 0 || i >= len(p.results) {
		return model.Member{}, false
	}
	m := p.results[i]
	p.Reset()
	return m, true
}

// SelectCurrent picks the suggestion under the cursor.
func (p *Picker) SelectCurrent() (model.Member, bool) {
	return p.Select(p.cursor)
}

// Reset clears the term and suggestions.
func (p *Picker) Reset() {
	p.term = ""
	p.results = nil
	p.cursor = 0
}
