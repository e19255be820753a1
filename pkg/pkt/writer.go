package pkt

import (
	"Go2NetEuclid/internal/model"
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write encodes records as a complete PKT stream and returns the number of
// bytes written.
func Write(w io.Writer, records []*model.FlowRecord) (uint64, error) {
	bw := bufio.NewWriter(w)

	header := EncodeHeader(uint64(len(records)))
	if _, err := bw.Write(header[:]); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	var buf [RecordSize]byte
	for _, rec := range records {
		model.EncodeRecord(buf[:], rec)
		if _, err := bw.Write(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush PKT stream: %w", err)
	}
	return HeaderSize + uint64(len(records))*RecordSize, nil
}

// WriteFile creates (or truncates) path and writes records into it.
func WriteFile(path string, records []*model.FlowRecord) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open output file '%s': %w", path, err)
	}

	n, err := Write(f, records)
	if err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close output file '%s': %w", path, err)
	}
	return n, nil
}

// WriteRecords is WriteFile for a plain slice of records.
func WriteRecords(path string, records []model.FlowRecord) (uint64, error) {
	ptrs := make([]*model.FlowRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	return WriteFile(path, ptrs)
}
