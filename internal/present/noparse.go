package present

import (
	"fmt"
	"io"

	"github.com/oceanbase/obstack/internal/objfile"
	"github.com/oceanbase/obstack/internal/procfs"
	"github.com/oceanbase/obstack/internal/trace"
)

// NoParse writes each thread's raw addresses with no symbol or line
// resolution, rewriting any address that falls inside the main
// executable's mapped range into its file-relative offset — the same
// transformation the fully resolved path applies, just without looking up
// a function or line — and leaving every other address untouched.
func NoParse(w io.Writer, threads []trace.Thread, mainExe *objfile.File, mainRegion procfs.Region) {
	for _, th := range threads {
		fmt.Fprintf(w, "Thread %d (%s)\n", th.Tid, th.Name)
		for i, addr := range th.Addrs {
			if mainExe != nil && addr >= mainRegion.Start && addr < mainRegion.End {
				if pt, ok := mainPTLoad(mainExe, addr, mainRegion); ok {
					off := objfile.FileOffset(addr, mainRegion.Start, pt)
					fmt.Fprintf(w, "#%d %#x\n", i, off)
					continue
				}
			}
			fmt.Fprintf(w, "#%d %#x\n", i, addr)
		}
		fmt.Fprintln(w)
	}
}

func mainPTLoad(f *objfile.File, addr uint64, region procfs.Region) (objfile.PTLoad, bool) {
	offsetInRegion := addr - region.Start
	for _, pt := range f.PTLoads {
		if offsetInRegion < pt.End-pt.Start {
			return pt, true
		}
	}
	return objfile.PTLoad{}, false
}
