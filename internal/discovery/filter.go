package discovery

import "github.com/mohammed-shakir/recycler-discovery/internal/core/model"

// FilterState holds the selected material types. Toggle is its only mutator.
// The zero value is an empty selection.
type FilterState struct {
	sel model.Selection
}

// Toggle removes id if selected, adds it otherwise, and returns the new selection.
func (f *FilterState) Toggle(id int) model.Selection {
	f.sel = f.sel.With(id)
	return f.sel
}

func (f *FilterState) Selected(id int) bool { return f.sel.Has(id) }

func (f *FilterState) Selection() model.Selection { return f.sel }
