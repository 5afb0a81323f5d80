package present

import (
	"fmt"
	"io"
	"sort"

	"github.com/oceanbase/obstack/internal/location"
	"github.com/oceanbase/obstack/internal/trace"
)

// Resolver resolves one captured address to its Location, typically
// backed by a location.Cache.
type Resolver interface {
	Lookup(addr uint64) location.Location
}

// PerThread writes one "Thread <tid> (<name>)" block per thread, in the
// order threads were captured.
func PerThread(w io.Writer, threads []trace.Thread, resolver Resolver, colorizer Colorizer, showFrameNum bool) {
	for _, th := range threads {
		fmt.Fprintf(w, "Thread %d (%s)\n", th.Tid, th.Name)
		printFrames(w, th.Addrs, resolver, colorizer, showFrameNum)
		fmt.Fprintln(w)
	}
}

// group is one set of threads that captured byte-identical stacks.
type group struct {
	addrs   []uint64
	threads []trace.Thread
}

// Aggregated groups threads by identical captured stack, writes the
// largest groups first, and renders each group's frames once under a
// header listing every thread that produced that stack.
func Aggregated(w io.Writer, threads []trace.Thread, resolver Resolver, colorizer Colorizer, showFrameNum bool) {
	byKey := make(map[string]*group)
	var order []string
	for _, th := range threads {
		key := th.Key()
		g, ok := byKey[key]
		if !ok {
			g = &group{addrs: th.Addrs}
			byKey[key] = g
			order = append(order, key)
		}
		g.threads = append(g.threads, th)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(byKey[order[i]].threads) > len(byKey[order[j]].threads)
	})

	for _, key := range order {
		g := byKey[key]
		fmt.Fprint(w, "Threads (")
		for i, th := range g.threads {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%d-%s", th.Tid, th.Name)
		}
		fmt.Fprintln(w, ")")
		printFrames(w, g.addrs, resolver, colorizer, showFrameNum)
		fmt.Fprintln(w)
	}
}

func printFrames(w io.Writer, addrs []uint64, resolver Resolver, colorizer Colorizer, showFrameNum bool) {
	for i, addr := range addrs {
		prefix := ""
		if showFrameNum {
			prefix = colorizer.Highlight(fmt.Sprintf("#%d ", i)) + " "
		}
		loc := resolver.Lookup(addr)
		addrPrefix := fmt.Sprintf("0x%016x in", addr)

		switch {
		case loc.HasLine():
			fmt.Fprintf(w, "%s%s %s at %s:%d\n", prefix, addrPrefix, loc.Function, loc.File, loc.Line)
		case loc.Object != "":
			fmt.Fprintf(w, "%s%s %s from %s\n", prefix, addrPrefix, loc.Function, loc.Object)
		default:
			fmt.Fprintf(w, "%s%s ???\n", prefix, addrPrefix)
		}
	}
}
