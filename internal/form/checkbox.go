// Package form turns submitted poll forms into answer sets.
package form

import (
	"fmt"

	"prepost-poll/internal/domain"
	"prepost-poll/internal/render"
)

// OverSelectionMessage is shown when a fourth checkbox option is picked.
var OverSelectionMessage = fmt.Sprintf("Please select only %d options", render.MaxCheckboxSelections)

// CheckboxGroup tracks the checked options of one checkbox question and enforces the
// selection cap: checking an option beyond the cap leaves it unchecked.
type CheckboxGroup struct {
	question domain.CheckboxQuestion
	max      int
	checked  map[string]bool
}

func NewCheckboxGroup(q domain.CheckboxQuestion) *CheckboxGroup {
	return &CheckboxGroup{
		question: q,
		max:      render.MaxCheckboxSelections,
		checked:  make(map[string]bool),
	}
}

// Toggle applies a change of one option's checked state.
func (g *CheckboxGroup) Toggle(option string, checked bool) error {
	if !g.question.HasOption(option) {
		return fmt.Errorf("%w: %q on question %q", domain.ErrOptionNotFound, option, g.question.ID)
	}
	if !checked {
		delete(g.checked, option)
		return nil
	}
	if g.checked[option] {
		return nil
	}
	if len(g.checked) >= g.max {
		return &domain.ValidationError{Field: g.question.ID, Message: OverSelectionMessage}
	}
	g.checked[option] = true
	return nil
}

// Checked lists the checked options in declaration order.
func (g *CheckboxGroup) Checked() []string {
	out := make([]string, 0, len(g.checked))
	for _, o := range g.question.Options {
		if g.checked[o] {
			out = append(out, o)
		}
	}
	return out
}

// Reset unchecks everything.
func (g *CheckboxGroup) Reset() {
	g.checked = make(map[string]bool)
}
