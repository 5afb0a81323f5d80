package procfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ThreadInfo is one enumerated thread of a target process.
type ThreadInfo struct {
	Tid  int
	Name string
}

// ListThreads enumerates every thread of pid via /proc/<pid>/task. When
// only is non-empty, it restricts the result to those tids (still sourced
// from the task directory, so a tid that never belonged to pid is simply
// absent from the result rather than treated as an error).
func ListThreads(pid int, only []int) ([]ThreadInfo, error) {
	dir := fmt.Sprintf("/proc/%d/task", pid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open dir %s: %w", dir, err)
	}

	var want map[int]bool
	if len(only) > 0 {
		want = make(map[int]bool, len(only))
		for _, t := range only {
			want[t] = true
		}
	}

	var threads []ThreadInfo
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if want != nil && !want[tid] {
			continue
		}
		threads = append(threads, ThreadInfo{Tid: tid, Name: threadName(pid, tid)})
	}
	return threads, nil
}

// threadName reads /proc/<pid>/task/<tid>/comm, returning an empty string
// if the thread has already exited or the read otherwise fails.
func threadName(pid, tid int) string {
	path := fmt.Sprintf("/proc/%d/task/%d/comm", pid, tid)
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\n")
}

// IsStopped reports whether pid's /proc/<pid>/status shows a stopped
// thread state ("State:\tT (stopped)"), used after detaching to warn about
// a thread that is still reported as stopped.
func IsStopped(pid int) bool {
	path := fmt.Sprintf("/proc/%d/status", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "State:") {
			continue
		}
		fields := strings.Fields(line)
		return len(fields) >= 2 && fields[1] == "T"
	}
	return false
}

// GetBinaryPath returns the resolved path of the executable backing pid.
func GetBinaryPath(pid int) (string, error) {
	path := fmt.Sprintf("/proc/%d/exe", pid)
	target, err := os.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("readlink %s: %w", path, err)
	}
	return target, nil
}
