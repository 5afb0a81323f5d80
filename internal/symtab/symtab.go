// Package symtab extracts and queries an ELF object's function symbol
// table, preferring the static table and falling back to the dynamic one
// only when the object has been stripped of static symbols.
package symtab

import (
	"debug/elf"
	"sort"
	"strings"
)

// Entry is one function symbol: its load-address and size (as recorded in
// the symbol table; a size of 0 means the table carries no size info).
type Entry struct {
	Addr uint64
	Size uint64
	Name string
}

// Table is a sorted-by-address list of function symbols for one object.
type Table struct {
	entries []Entry
}

// droppedPrefixes mirrors the original tool's filter of compiler-generated
// bookkeeping symbols that are never useful stack-frame names.
var droppedPrefixes = []string{"__tcf", "__tz"}

// Load builds a Table from f, trying the static symbol table first and
// falling back to the dynamic symbol table only if the static one is
// empty (e.g. the binary has been stripped).
func Load(f *elf.File) (*Table, error) {
	syms, err := f.Symbols()
	if err != nil || len(syms) == 0 {
		syms, err = f.DynamicSymbols()
		if err != nil {
			// Neither table is present; an empty Table is still valid —
			// every lookup will simply miss.
			return &Table{}, nil
		}
	}

	var entries []Entry
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		// Keep only symbols defined in an allocated, executable section;
		// this drops undefined (imported) functions, which carry address 0.
		const textFlags = elf.SHF_ALLOC | elf.SHF_EXECINSTR
		if int(s.Section) >= len(f.Sections) || f.Sections[s.Section].Flags&textFlags != textFlags {
			continue
		}
		if s.Name == "" || hasAnyPrefix(s.Name, droppedPrefixes) {
			continue
		}
		entries = append(entries, Entry{Addr: s.Value, Size: s.Size, Name: s.Name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Addr < entries[j].Addr })
	return &Table{entries: entries}, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Lookup returns the nearest symbol at or below addr. It deliberately does
// not check whether addr falls before the following symbol or within this
// symbol's recorded size: an address past the end of the nearest symbol's
// range is still attributed to it, matching the historical behavior of
// this lookup.
func (t *Table) Lookup(addr uint64) (Entry, bool) {
	n := len(t.entries)
	if n == 0 {
		return Entry{}, false
	}

	// i is the index of the first entry with Addr > addr (upper_bound).
	i := sort.Search(n, func(i int) bool { return t.entries[i].Addr > addr })
	if i == 0 {
		return Entry{}, false
	}
	return t.entries[i-1], true
}

// Len reports how many function symbols were loaded.
func (t *Table) Len() int { return len(t.entries) }
