package cpu

import (
	"iter"
	"maps"
	"slices"
)

const (
	SYMBOL_LIMIT = 256 // Maximum number of labels in a program.
)

// Label is a symbol bound to a byte address.
type Label struct {
	Name    string
	Address uint16
}

// SymbolTable maps label names to addresses, in definition order.
type SymbolTable struct {
	Labels []Label

	index map[string]int
}

// Add binds a new label to an address.
func (st *SymbolTable) Add(name string, address uint16) (err error) {
	if _, ok := st.index[name]; ok {
		err = ErrLabelDuplicate
		return
	}

	if len(st.Labels) >= SYMBOL_LIMIT {
		err = ErrSymbolTableFull
		return
	}

	if st.index == nil {
		st.index = make(map[string]int, 16)
	}

	st.index[name] = len(st.Labels)
	st.Labels = append(st.Labels, Label{Name: name, Address: address})

	return
}

// Find returns the address bound to a label.
func (st *SymbolTable) Find(name string) (address uint16, ok bool) {
	n, ok := st.index[name]
	if ok {
		address = st.Labels[n].Address
	}
	return
}

// Len returns the number of labels.
func (st *SymbolTable) Len() int {
	return len(st.Labels)
}

// All iterates over the labels in definition order.
func (st *SymbolTable) All() iter.Seq2[string, uint16] {
	return func(yield func(name string, address uint16) bool) {
		for _, label := range st.Labels {
			if !yield(label.Name, label.Address) {
				return
			}
		}
	}
}

// Reset removes all labels.
func (st *SymbolTable) Reset() {
	st.Labels = st.Labels[:0]
	clear(st.index)
}

// Clone returns an independent copy of the table.
func (st *SymbolTable) Clone() (clone SymbolTable) {
	clone.Labels = slices.Clone(st.Labels)
	clone.index = maps.Clone(st.index)
	return
}
