//go:build linux

package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/oceanbase/obstack/internal/config"
	"github.com/oceanbase/obstack/internal/demangle"
	"github.com/oceanbase/obstack/internal/location"
	"github.com/oceanbase/obstack/internal/obstackerr"
	"github.com/oceanbase/obstack/internal/objfile"
	"github.com/oceanbase/obstack/internal/present"
	"github.com/oceanbase/obstack/internal/procfs"
	"github.com/oceanbase/obstack/internal/trace"
)

// runMain drives one full tracing session against cfg.Pid: enumerate
// threads, capture stacks via the tracer child, resolve addresses, and
// print the result.
func runMain(cfg config.Config, logger zerolog.Logger) error {
	mainExePath, err := procfs.GetBinaryPath(cfg.Pid)
	if err != nil {
		return obstackerr.Wrap(obstackerr.EntryNotExist, err, "pid %d is not a running process", cfg.Pid)
	}

	regions, err := procfs.ReadMaps(cfg.Pid)
	if err != nil {
		return obstackerr.Wrap(obstackerr.EntryNotExist, err, "read memory map for pid %d", cfg.Pid)
	}

	driver := &trace.Driver{Pid: cfg.Pid, ThreadOnly: cfg.ThreadOnly, Logger: logger}
	threads, err := driver.Run()
	if err != nil {
		return err
	}

	colorizer := present.NewColorizer(int(os.Stdout.Fd()))

	if cfg.NoParse {
		var mainExe *objfile.File
		var mainRegion procfs.Region
		for _, r := range regions {
			if procfs.SameFile(r.Path, mainExePath) {
				mainRegion = r
				break
			}
		}
		if mainRegion.Path != "" {
			if f, err := objfile.Open(mainExePath, cfg.SymbolPath, cfg.DebuginfoPath); err == nil {
				mainExe = f
			}
		}
		present.NoParse(os.Stdout, threads, mainExe, mainRegion)
		return nil
	}

	cache, err := location.NewCache(regions, mainExePath, cfg.SymbolPath, cfg.DebuginfoPath, cfg.NoLineno, demangle.Noop{})
	if err != nil {
		return obstackerr.Wrap(obstackerr.UnexpectedError, err, "build symbol/line cache")
	}
	for _, th := range threads {
		cache.Resolve(th.Addrs)
	}

	if cfg.Agg {
		present.Aggregated(os.Stdout, threads, cache, colorizer, true)
	} else {
		present.PerThread(os.Stdout, threads, cache, colorizer, true)
	}
	return nil
}
