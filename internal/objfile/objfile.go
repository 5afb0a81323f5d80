// Package objfile opens one ELF object mapped into a traced process and
// exposes its load segments, function symbol table, and DWARF line
// information.
package objfile

import (
	"debug/dwarf"
	"debug/elf"
	"fmt"

	"github.com/oceanbase/obstack/internal/symtab"
)

// PTLoad is one PT_LOAD program header: the range it occupies once mapped
// relative to the object's own preferred base, plus whether it carries the
// executable permission bit.
type PTLoad struct {
	Start          uint64
	End            uint64
	IsExec         bool
	PreferredVaddr uint64
}

// File is one opened ELF object, with its load segments, symbol table, and
// (optionally, if present) DWARF debug info.
type File struct {
	Path      string
	PTLoads   []PTLoad
	Symtab    *symtab.Table
	TextVMA   uint64
	TextSize  uint64
	dwarfData *dwarf.Data
}

// Open reads path's PT_LOAD segments, function symbol table, and DWARF
// line program (if present). symbolPath and debuginfoPath, when non-empty,
// override where the symbol table and DWARF data are read from — used for
// the main executable when --symbol_path/--debuginfo_path are given;
// shared libraries always pass empty strings for both.
func Open(path, symbolPath, debuginfoPath string) (*File, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer ef.Close()

	f := &File{Path: path}

	for _, prog := range ef.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		f.PTLoads = append(f.PTLoads, PTLoad{
			Start:          prog.Vaddr,
			End:            prog.Vaddr + prog.Memsz,
			IsExec:         prog.Flags&elf.PF_X != 0,
			PreferredVaddr: prog.Vaddr,
		})
	}

	if sec := ef.Section(".text"); sec != nil {
		f.TextVMA = sec.Addr
		f.TextSize = sec.Size
	}

	symSrc := ef
	if symbolPath != "" && symbolPath != path {
		sf, err := elf.Open(symbolPath)
		if err != nil {
			return nil, fmt.Errorf("open symbol file %s: %w", symbolPath, err)
		}
		defer sf.Close()
		symSrc = sf
	}
	tbl, err := symtab.Load(symSrc)
	if err != nil {
		return nil, fmt.Errorf("load symbols for %s: %w", path, err)
	}
	f.Symtab = tbl

	dwarfSrc := ef
	dwarfPath := path
	if debuginfoPath != "" && debuginfoPath != path {
		df, err := elf.Open(debuginfoPath)
		if err == nil {
			defer df.Close()
			dwarfSrc = df
			dwarfPath = debuginfoPath
		}
	}
	if data, err := dwarfSrc.DWARF(); err == nil {
		f.dwarfData = data
	} else {
		_ = dwarfPath // no debug info available; line resolution will simply miss
	}

	return f, nil
}

// IsPositionIndependent reports whether this object is a shared library or
// PIE executable, i.e. its first executable PT_LOAD segment has a
// preferred vaddr of zero. Named for what it actually reports, unlike the
// historical check_shlib which returned the same boolean under a
// confusingly inverted name.
func (f *File) IsPositionIndependent() bool {
	for _, pt := range f.PTLoads {
		if pt.IsExec {
			return pt.PreferredVaddr == 0
		}
	}
	return false
}

// FileOffset converts an absolute runtime address into the file-relative
// offset used to query the symbol table and DWARF line info, given the
// PTLoad segment the address fell into and the mapped-region start it
// belongs to.
func FileOffset(absoluteAddr uint64, regionStart uint64, pt PTLoad) uint64 {
	return absoluteAddr - (regionStart - pt.PreferredVaddr)
}

// LineForAddr resolves a file-relative address to a source file and line
// number via the DWARF line program. It recovers from a panic triggered by
// malformed DWARF data and reports ok=false in that case, the same
// fault-tolerance contract the original per-address sigsetjmp harness
// provided for corrupt debug info.
func (f *File) LineForAddr(addr uint64) (file string, line int, ok bool) {
	if f.dwarfData == nil {
		return "", 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			file, line, ok = "", 0, false
		}
	}()

	reader, err := f.lineReaderFor(addr)
	if err != nil || reader == nil {
		return "", 0, false
	}

	var entry dwarf.LineEntry
	if err := reader.SeekPC(addr, &entry); err != nil {
		return "", 0, false
	}
	return entry.File.Name, entry.Line, true
}

// lineReaderFor returns a LineReader positioned at the compile unit
// covering addr. Each compile unit's LineReader is rebuilt per call since
// dwarf.LineReader is not safe to reuse across unrelated seeks.
func (f *File) lineReaderFor(addr uint64) (*dwarf.LineReader, error) {
	r := f.dwarfData.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, nil
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		lr, err := f.dwarfData.LineReader(entry)
		if err != nil || lr == nil {
			r.SkipChildren()
			continue
		}
		// A compile unit's low/high PC bound whether addr could live in
		// it; fall back to trying SeekPC and letting it fail if the
		// attributes aren't present.
		low, lowOK := entry.Val(dwarf.AttrLowpc).(uint64)
		high, highOK := highPC(entry, low)
		if lowOK && highOK && (addr < low || addr >= high) {
			r.SkipChildren()
			continue
		}
		return lr, nil
	}
}

// FunctionForAddr returns the name of the DWARF subprogram covering addr,
// for objects where the function symbol table lookup missed (commonly a
// stripped binary that still carries .debug_info). It is a linear scan
// over every compile unit's subprogram entries; callers should only reach
// for it after a symtab.Table.Lookup miss, not as the primary path.
func (f *File) FunctionForAddr(addr uint64) (name string, ok bool) {
	if f.dwarfData == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			name, ok = "", false
		}
	}()

	r := f.dwarfData.Reader()
	for {
		entry, err := r.Next()
		if err != nil || entry == nil {
			return "", false
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}
		low, lowOK := entry.Val(dwarf.AttrLowpc).(uint64)
		if !lowOK {
			continue
		}
		high, highOK := highPC(entry, low)
		if !highOK || addr < low || addr >= high {
			continue
		}
		nameAttr, _ := entry.Val(dwarf.AttrName).(string)
		if nameAttr == "" {
			return "", false
		}
		return nameAttr, true
	}
}

// highPC resolves DW_AT_high_pc, which per DWARF4+ may be encoded either
// as an absolute address or as an offset from low PC depending on the
// attribute's class.
func highPC(entry *dwarf.Entry, low uint64) (uint64, bool) {
	switch v := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		if v > low {
			return v, true
		}
		return low + v, true
	case int64:
		return low + uint64(v), true
	default:
		return 0, false
	}
}
