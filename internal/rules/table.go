package rules

import "sync/atomic"

// Table holds the active RuleSet behind an atomic pointer so a reload swaps
// the whole table while an in-flight evaluation keeps the copy it started
// with.
type Table struct {
	p atomic.Pointer[RuleSet]
}

// NewTable wraps an initial rule set.
func NewTable(rs *RuleSet) *Table {
	t := &Table{}
	t.p.Store(rs)
	return t
}

// Current returns the active rule set.
func (t *Table) Current() *RuleSet {
	return t.p.Load()
}

// Reload parses and validates the file and swaps the table only on success.
func (t *Table) Reload(path string) error {
	rs, err := Load(path)
	if err != nil {
		return err
	}
	t.p.Store(rs)
	return nil
}
