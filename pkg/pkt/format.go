// Package pkt implements the PKT flow record file format: a 64-byte header
// ("PKTV001X", little-endian uint64 record count, 48 reserved bytes)
// followed by fixed 16-byte records.
package pkt

import (
	"Go2NetEuclid/internal/model"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic is the format identifier at the start of every PKT file.
	Magic = "PKTV001X"
	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64
	// RecordSize is the size of a single record in bytes.
	RecordSize = model.RecordSize
)

// ErrBadFormat is returned for files that are not valid PKT files.
var ErrBadFormat = errors.New("invalid PKT file")

// EncodeHeader returns the header for a file holding count records.
func EncodeHeader(count uint64) [HeaderSize]byte {
	var h [HeaderSize]byte
	copy(h[:8], Magic)
	binary.LittleEndian.PutUint64(h[8:16], count)
	return h
}

// DecodeHeader validates the magic and returns the record count.
func DecodeHeader(data []byte) (uint64, error) {
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("%w: too small to contain a valid header (%d bytes)", ErrBadFormat, len(data))
	}
	if string(data[:8]) != Magic {
		return 0, fmt.Errorf("%w: incorrect format identifier %q", ErrBadFormat, data[:8])
	}
	return binary.LittleEndian.Uint64(data[8:16]), nil
}

// FileName returns the canonical name of a mixed dataset.
func FileName(detectionSize uint64, percentage float64) string {
	return fmt.Sprintf("mixed_n%d_p%d.pkt", detectionSize, uint32(percentage*10000))
}
