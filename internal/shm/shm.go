//go:build linux

// Package shm implements the file-backed MAP_SHARED region the re-exec'd
// tracer child uses to hand per-thread results back to the parent — the
// Go-safe analogue of the anonymous mmap(MAP_SHARED|MAP_ANONYMOUS) region
// the original tool allocated before forking.
package shm

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	maxAddrs   = 256
	maxName    = 32
	recordSize = 4 /*tid*/ + maxName /*name*/ + 4 /*naddrs*/ + maxAddrs*8 /*addrs*/
)

// Record is one thread's captured backtrace.
type Record struct {
	Tid   int32
	Name  string
	Addrs []uint64
}

// Region is a file-backed MAP_SHARED area holding n fixed-size Records.
type Region struct {
	file *os.File
	data []byte
	n    int
}

// Create allocates a new backing file sized for n records and maps it
// MAP_SHARED, for use by the parent before starting the tracer child.
func Create(n int) (*Region, error) {
	f, err := os.CreateTemp("", "obstack-shm-*")
	if err != nil {
		return nil, fmt.Errorf("create shm file: %w", err)
	}
	if err := f.Truncate(int64(n * recordSize)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("truncate shm file: %w", err)
	}
	return mapFile(f, n)
}

// Open maps an existing backing file created by Create, for use by the
// re-exec'd tracer child.
func Open(path string, n int) (*Region, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open shm file %s: %w", path, err)
	}
	return mapFile(f, n)
}

func mapFile(f *os.File, n int) (*Region, error) {
	size := n * recordSize
	if size == 0 {
		size = recordSize
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap shm file: %w", err)
	}
	return &Region{file: f, data: data, n: n}, nil
}

// Path returns the backing file's path, passed to the re-exec'd child.
func (r *Region) Path() string { return r.file.Name() }

// Close unmaps and closes the backing file. It does not remove the file;
// callers that created it are responsible for cleanup via Remove.
func (r *Region) Close() error {
	if err := unix.Munmap(r.data); err != nil {
		r.file.Close()
		return fmt.Errorf("munmap shm file: %w", err)
	}
	return r.file.Close()
}

// Remove deletes the backing file. Call after Close.
func (r *Region) Remove() error { return os.Remove(r.file.Name()) }

// Put writes rec into slot i.
func (r *Region) Put(i int, rec Record) error {
	if i < 0 || i >= r.n {
		return fmt.Errorf("shm slot %d out of range [0,%d)", i, r.n)
	}
	if len(rec.Addrs) > maxAddrs {
		rec.Addrs = rec.Addrs[:maxAddrs]
	}

	buf := r.data[i*recordSize : (i+1)*recordSize]
	for j := range buf {
		buf[j] = 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(rec.Tid))

	name := []byte(rec.Name)
	if len(name) > maxName-1 {
		name = name[:maxName-1]
	}
	copy(buf[4:4+maxName], name)

	binary.LittleEndian.PutUint32(buf[4+maxName:8+maxName], uint32(len(rec.Addrs)))

	off := 8 + maxName
	for _, a := range rec.Addrs {
		binary.LittleEndian.PutUint64(buf[off:off+8], a)
		off += 8
	}
	return nil
}

// Get reads slot i.
func (r *Region) Get(i int) (Record, error) {
	if i < 0 || i >= r.n {
		return Record{}, fmt.Errorf("shm slot %d out of range [0,%d)", i, r.n)
	}
	buf := r.data[i*recordSize : (i+1)*recordSize]

	tid := int32(binary.LittleEndian.Uint32(buf[0:4]))
	nameBytes := buf[4 : 4+maxName]
	name := string(nameBytes)
	if idx := indexZero(nameBytes); idx >= 0 {
		name = string(nameBytes[:idx])
	}

	nAddrs := int(binary.LittleEndian.Uint32(buf[4+maxName : 8+maxName]))
	if nAddrs > maxAddrs {
		nAddrs = maxAddrs
	}
	addrs := make([]uint64, nAddrs)
	off := 8 + maxName
	for j := 0; j < nAddrs; j++ {
		addrs[j] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}

	return Record{Tid: tid, Name: name, Addrs: addrs}, nil
}

// Len reports the number of record slots in the region.
func (r *Region) Len() int { return r.n }

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
