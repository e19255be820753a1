package pkt

import (
	"Go2NetEuclid/internal/model"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// File is a memory-mapped PKT file. The mapping is private and writable, so
// classifiers can mark records in place without touching the file on disk.
type File struct {
	path    string
	data    []byte
	records []model.FlowRecord
	pos     int
}

// Open maps the file at path and validates its header.
func Open(path string) (*File, error) {
	if !littleEndianHost() {
		return nil, fmt.Errorf("mapping PKT files requires a little-endian host")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file size for '%s': %w", path, err)
	}
	size := info.Size()
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: '%s' is too small to contain a valid header", ErrBadFormat, path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to memory map file '%s': %w", path, err)
	}

	count, err := DecodeHeader(data)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}

	// A truncated file exposes only the records it actually holds.
	available := uint64(len(data)-HeaderSize) / RecordSize
	count = min(count, available)

	var records []model.FlowRecord
	if count > 0 {
		records = unsafe.Slice((*model.FlowRecord)(unsafe.Pointer(&data[HeaderSize])), count)
	}

	return &File{path: path, data: data, records: records}, nil
}

// EntryCount returns the number of records in the file.
func (f *File) EntryCount() uint64 {
	return uint64(len(f.records))
}

// Next returns a mutable view of the next record.
func (f *File) Next() (*model.FlowRecord, bool) {
	if f.pos >= len(f.records) {
		return nil, false
	}
	rec := &f.records[f.pos]
	f.pos++
	return rec, true
}

// Reset moves back to the first record.
func (f *File) Reset() {
	f.pos = 0
}

// Records exposes all mapped records.
func (f *File) Records() []model.FlowRecord {
	return f.records
}

// Path returns the mapped file path.
func (f *File) Path() string {
	return f.path
}

// Close unmaps the file. Record views must not be used afterwards.
func (f *File) Close() error {
	if f.data == nil {
		return nil
	}
	err := unix.Munmap(f.data)
	f.data, f.records = nil, nil
	return err
}

func littleEndianHost() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}
