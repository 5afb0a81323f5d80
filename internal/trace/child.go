//go:build linux

package trace

import (
	"errors"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/oceanbase/obstack/internal/obstackerr"
	"github.com/oceanbase/obstack/internal/procfs"
	"github.com/oceanbase/obstack/internal/ptrace"
	"github.com/oceanbase/obstack/internal/shm"
	"github.com/oceanbase/obstack/internal/unwind"
)

// ChildArgs are the re-exec'd tracer child's internal CLI arguments.
type ChildArgs struct {
	Pid     int
	ShmPath string
	N       int
	Tids    []int
}

// ParseChildArgs parses the --internal-pid/--internal-shm/--internal-n/
// --internal-tids flags the parent driver passes.
func ParseChildArgs(pid, n int, shmPath, tidsCSV string) (ChildArgs, error) {
	args := ChildArgs{Pid: pid, ShmPath: shmPath, N: n}
	if tidsCSV == "" {
		return args, nil
	}
	for _, s := range strings.Split(tidsCSV, ",") {
		tid, err := strconv.Atoi(s)
		if err != nil {
			return ChildArgs{}, obstackerr.New(obstackerr.InvalidArg, "malformed internal tid list entry %q", s)
		}
		args.Tids = append(args.Tids, tid)
	}
	return args, nil
}

// RunTracerChild attaches to every thread in args.Tids in turn, captures
// its stack, and writes the result into the shared region at shmPath. It
// never calls os.Exit itself; the caller (cmd/obstack's main) does, using
// the returned error's exit code.
func RunTracerChild(args ChildArgs, logger zerolog.Logger) error {
	region, err := shm.Open(args.ShmPath, args.N)
	if err != nil {
		return obstackerr.Wrap(obstackerr.FileOpenError, err, "open shared result region")
	}
	defer region.Close()

	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			interrupted.Store(true)
		}
	}()

	unwinder := unwind.FramePointer{}

	for i, tid := range args.Tids {
		if interrupted.Load() {
			logger.Debug().Msg("interrupted, stopping before remaining threads")
			break
		}
		name := threadName(args.Pid, tid)
		addrs, err := traceOne(tid, unwinder, logger)
		if err != nil {
			logger.Debug().Err(err).Int("tid", tid).Msg("failed to capture thread stack")
			continue
		}
		if err := region.Put(i, shm.Record{Tid: int32(tid), Name: name, Addrs: addrs}); err != nil {
			logger.Warn().Err(err).Int("tid", tid).Msg("failed to store captured stack")
		}
	}
	return nil
}

func threadName(pid, tid int) string {
	infos, err := procfs.ListThreads(pid, []int{tid})
	if err != nil || len(infos) == 0 {
		return ""
	}
	return infos[0].Name
}

// traceOne attaches to tid on a locked OS thread, captures its stack, and
// detaches unconditionally before returning. ESRCH (the thread exited
// between enumeration and attach) is reported as a plain error the caller
// logs at DEBUG rather than WARN, matching the historical silent-skip
// behavior for races of this kind.
func traceOne(tid int, unwinder unwind.Unwinder, logger zerolog.Logger) ([]uint64, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tracee, err := ptrace.Attach(tid)
	if err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil, err
		}
		logger.Warn().Err(err).Int("tid", tid).Msg("ptrace attach failed")
		return nil, err
	}
	defer func() {
		if derr := tracee.Detach(); derr != nil {
			logger.Warn().Err(derr).Int("tid", tid).Msg("ptrace detach failed")
		}
	}()

	return unwinder.Unwind(tracee)
}
