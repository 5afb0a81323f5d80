// Package location resolves absolute addresses captured from a traced
// process into human-readable (object, function, file, line) tuples,
// caching results and batching DWARF work per backing object.
package location

import (
	"fmt"
	"sort"

	"github.com/oceanbase/obstack/internal/demangle"
	"github.com/oceanbase/obstack/internal/objfile"
	"github.com/oceanbase/obstack/internal/procfs"
)

// Location is the fully resolved description of one address.
type Location struct {
	Object   string
	Function string
	File     string
	Line     int
}

// HasLine reports whether a usable file:line was resolved.
func (l Location) HasLine() bool {
	return l.File != "" && l.File != "0" && l.File != "(null)" && l.Line > 0
}

// Cache resolves and memoizes Location values for a fixed set of mapped
// regions and their opened objects.
type Cache struct {
	regions   []procfs.Region
	objects   map[string]*objfile.File
	demangler demangle.Demangler
	noLineno  bool

	resolved map[uint64]Location
}

// NewCache opens every distinct object backing regions (applying
// symbolPath/debuginfoPath only to the main executable, identified by
// mainExePath) and returns a Cache ready to resolve addresses within them.
func NewCache(regions []procfs.Region, mainExePath, symbolPath, debuginfoPath string, noLineno bool, dm demangle.Demangler) (*Cache, error) {
	objects := make(map[string]*objfile.File)
	for _, r := range regions {
		if _, ok := objects[r.Path]; ok {
			continue
		}
		sp, dp := "", ""
		if procfs.SameFile(r.Path, mainExePath) {
			sp, dp = symbolPath, debuginfoPath
		}
		f, err := objfile.Open(r.Path, sp, dp)
		if err != nil {
			// An object we can't open (permissions, deleted file) just
			// yields "???" for its addresses; it is not fatal overall.
			continue
		}
		objects[r.Path] = f
	}

	return &Cache{
		regions:   regions,
		objects:   objects,
		demangler: dm,
		noLineno:  noLineno,
		resolved:  make(map[uint64]Location),
	}, nil
}

// Resolve batches addrs by the region (and thus object) they fall into and
// resolves each exactly once, caching the result by absolute address.
func (c *Cache) Resolve(addrs []uint64) {
	byRegion := make(map[int][]uint64)
	for _, addr := range addrs {
		if _, done := c.resolved[addr]; done {
			continue
		}
		idx := c.regionIndex(addr)
		byRegion[idx] = append(byRegion[idx], addr)
	}

	for idx, group := range byRegion {
		if idx < 0 {
			for _, addr := range group {
				c.resolved[addr] = Location{}
			}
			continue
		}
		region := c.regions[idx]
		obj := c.objects[region.Path]
		for _, addr := range group {
			c.resolved[addr] = c.resolveOne(obj, region, addr)
		}
	}
}

func (c *Cache) resolveOne(obj *objfile.File, region procfs.Region, addr uint64) Location {
	loc := Location{Object: region.Path}
	if obj == nil {
		return loc
	}

	pt, ok := ptloadFor(obj, addr, region)
	if !ok {
		return loc
	}
	fileOff := objfile.FileOffset(addr, region.Start, pt)

	if entry, ok := obj.Symtab.Lookup(fileOff); ok {
		loc.Function = c.demangler.Demangle(entry.Name)
	} else if name, ok := obj.FunctionForAddr(fileOff); ok {
		loc.Function = c.demangler.Demangle(name)
	}

	if !c.noLineno {
		if file, line, ok := obj.LineForAddr(fileOff); ok {
			loc.File = file
			loc.Line = line
		}
	}
	return loc
}

// ptloadFor finds the PTLoad segment of obj whose mapped range (relative
// to region.Start) contains addr.
func ptloadFor(obj *objfile.File, addr uint64, region procfs.Region) (objfile.PTLoad, bool) {
	// PTLoads are addressed relative to the object's own preferred base;
	// translate addr into that space using the first load segment found
	// to contain it by scanning in order, matching the historical
	// upper_bound-on-end-address search.
	pts := append([]objfile.PTLoad(nil), obj.PTLoads...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].End < pts[j].End })

	offsetInRegion := addr - region.Start
	for _, pt := range pts {
		if offsetInRegion < pt.End-pts[0].Start {
			return pt, true
		}
	}
	if len(pts) > 0 {
		return pts[0], true
	}
	return objfile.PTLoad{}, false
}

// regionIndex returns the index into c.regions containing addr, or -1.
func (c *Cache) regionIndex(addr uint64) int {
	for i, r := range c.regions {
		if addr >= r.Start && addr < r.End {
			return i
		}
	}
	return -1
}

// Lookup returns the previously resolved Location for addr, resolving it
// first if Resolve was never called for it.
func (c *Cache) Lookup(addr uint64) Location {
	if loc, ok := c.resolved[addr]; ok {
		return loc
	}
	c.Resolve([]uint64{addr})
	return c.resolved[addr]
}

// Key renders addrs as the hex-joined string used to group identical
// stacks in aggregated output.
func Key(addrs []uint64) string {
	s := ""
	for i, a := range addrs {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%x", a)
	}
	return s
}
