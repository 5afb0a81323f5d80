//go:build linux

package trace

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	gopsprocess "github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"

	"github.com/oceanbase/obstack/internal/obstackerr"
	"github.com/oceanbase/obstack/internal/procfs"
	"github.com/oceanbase/obstack/internal/shm"
)

// InternalTracerFlag is the hidden flag cmd/obstack dispatches on to run
// as the re-exec'd tracer child rather than the parent driver. It is never
// included in --help output.
const InternalTracerFlag = "internal-tracer"

// Driver runs one tracing session against a target pid.
type Driver struct {
	Pid        int
	ThreadOnly bool
	Logger     zerolog.Logger
}

// Run enumerates pid's threads, re-execs a tracer child to attach to each
// one, and returns the captured backtraces.
func (d *Driver) Run() ([]Thread, error) {
	if exists, err := gopsprocess.PidExists(int32(d.Pid)); err == nil && !exists {
		return nil, obstackerr.New(obstackerr.EntryNotExist, "pid %d is not running", d.Pid)
	}

	var only []int
	if d.ThreadOnly {
		only = []int{d.Pid}
	}
	infos, err := procfs.ListThreads(d.Pid, only)
	if err != nil {
		return nil, obstackerr.Wrap(obstackerr.EntryNotExist, err, "pid %d has no task directory", d.Pid)
	}
	if len(infos) == 0 {
		return nil, obstackerr.New(obstackerr.EntryNotExist, "pid %d has no threads", d.Pid)
	}

	region, err := shm.Create(len(infos))
	if err != nil {
		return nil, obstackerr.Wrap(obstackerr.AllocFailed, err, "allocate shared result region")
	}
	defer func() {
		region.Close()
		region.Remove()
	}()

	if err := d.runTracerChild(region, infos); err != nil {
		return nil, err
	}

	threads := make([]Thread, len(infos))
	for i, info := range infos {
		rec, err := region.Get(i)
		if err != nil {
			d.Logger.Warn().Err(err).Int("tid", info.Tid).Msg("missing shared result slot")
			continue
		}
		threads[i] = Thread{
			Tid:     info.Tid,
			Name:    info.Name,
			Addrs:   rec.Addrs,
			Stopped: procfs.IsStopped(info.Tid),
		}
		if threads[i].Stopped {
			d.Logger.Warn().Int("tid", info.Tid).Msg("thread left in stopped state after detach")
		}
	}
	return threads, nil
}

// runTracerChild re-execs the current binary as the tracer child, blocking
// the termination signals the parent would otherwise receive while the
// child runs, matching the historical parent/child signal-handling split.
func (d *Driver) runTracerChild(region *shm.Region, infos []procfs.ThreadInfo) error {
	self, err := os.Executable()
	if err != nil {
		return obstackerr.Wrap(obstackerr.UnexpectedError, err, "resolve own executable path")
	}

	tids := make([]string, len(infos))
	for i, info := range infos {
		tids[i] = strconv.Itoa(info.Tid)
	}

	cmd := exec.Command(self,
		"--"+InternalTracerFlag,
		"--internal-pid", strconv.Itoa(d.Pid),
		"--internal-shm", region.Path(),
		"--internal-n", strconv.Itoa(region.Len()),
		"--internal-tids", strings.Join(tids, ","),
	)
	// A distinct argv[0] keeps the tracer child from appearing as a
	// second copy of the parent in ps output.
	cmd.Args[0] = "obstack-tracer"
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	unblock, err := blockTerminationSignals()
	if err != nil {
		d.Logger.Warn().Err(err).Msg("failed to block termination signals around tracer child")
	} else {
		defer unblock()
	}

	if err := cmd.Run(); err != nil {
		return obstackerr.Wrap(obstackerr.UnexpectedError, err, "tracer child failed")
	}
	return nil
}

func blockTerminationSignals() (func(), error) {
	set := unix.Sigset_t{}
	for _, sig := range []int{int(unix.SIGHUP), int(unix.SIGINT), int(unix.SIGTERM)} {
		// Signal n occupies bit n-1 in a sigset_t bitmask.
		word := (sig - 1) / 64
		bit := uint((sig - 1) % 64)
		set.Val[word] |= 1 << bit
	}
	var old unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &old); err != nil {
		return nil, fmt.Errorf("block signals: %w", err)
	}
	return func() {
		_ = unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)
	}, nil
}
