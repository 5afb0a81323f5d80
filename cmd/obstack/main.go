//go:build linux

// Command obstack attaches to every thread of a running process, captures
// each thread's call stack, and prints the resolved backtraces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/oceanbase/obstack/internal/config"
	"github.com/oceanbase/obstack/internal/logging"
	"github.com/oceanbase/obstack/internal/obstackerr"
	"github.com/oceanbase/obstack/internal/trace"
)

var (
	version   = "2.0.4"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := pflag.NewFlagSet("obstack", pflag.ContinueOnError)
	fs.Usage = func() { usage(fs) }

	logLevel := fs.StringP("log_level", "l", config.DefaultLogLevel, "log level: debug|info|warn|error")
	noParse := fs.BoolP("no_parse", "n", false, "print raw addresses without symbol/line resolution")
	agg := fs.BoolP("agg", "a", false, "aggregate threads with identical stacks")
	symbolPath := fs.StringP("symbol_path", "s", "", "override symbol file for the main executable")
	debuginfoPath := fs.StringP("debuginfo_path", "d", "", "override debug info file for the main executable")
	noLineno := fs.BoolP("no_lineno", "o", false, "skip file:line resolution")
	threadOnly := fs.BoolP("thread_only", "t", false, "only sample the main thread")
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	showHelp := fs.BoolP("help", "?", false, "print usage and exit")

	internalTracer := fs.Bool(trace.InternalTracerFlag, false, "")
	internalPid := fs.Int("internal-pid", 0, "")
	internalShm := fs.String("internal-shm", "", "")
	internalN := fs.Int("internal-n", 0, "")
	internalTids := fs.String("internal-tids", "", "")
	mustHide(fs, trace.InternalTracerFlag, "internal-pid", "internal-shm", "internal-n", "internal-tids")

	if err := fs.Parse(argv); err != nil {
		return 1
	}

	if *showHelp {
		fs.Usage()
		return 1
	}

	if *showVersion {
		fmt.Printf("obstack (%s) built %s\n", version, buildTime)
		return 0
	}

	logger := logging.New(*logLevel)

	if *internalTracer {
		args, err := trace.ParseChildArgs(*internalPid, *internalN, *internalShm, *internalTids)
		if err != nil {
			logger.Error().Err(err).Msg("invalid internal tracer arguments")
			return obstackerr.InvalidArg.ExitCode()
		}
		if err := trace.RunTracerChild(args, logger); err != nil {
			logger.Error().Err(err).Msg("tracer child failed")
			return obstackerr.ExitCode(err)
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	pid, err := parsePid(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg := config.Config{
		Pid:           pid,
		LogLevel:      *logLevel,
		NoParse:       *noParse,
		Agg:           *agg,
		SymbolPath:    *symbolPath,
		DebuginfoPath: *debuginfoPath,
		NoLineno:      *noLineno,
		ThreadOnly:    *threadOnly,
	}

	if err := runMain(cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return obstackerr.ExitCode(err)
	}
	return 0
}

func mustHide(fs *pflag.FlagSet, names ...string) {
	for _, n := range names {
		if f := fs.Lookup(n); f != nil {
			f.Hidden = true
		}
	}
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage: obstack [options] <pid>")
	fs.PrintDefaults()
}

func parsePid(s string) (int, error) {
	var pid int
	if _, err := fmt.Sscanf(s, "%d", &pid); err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", s)
	}
	return pid, nil
}
