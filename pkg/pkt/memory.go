package pkt

import "Go2NetEuclid/internal/model"

// MemorySource serves records from a slice. Records handed out by Next alias
// the slice, so marks written by a classifier are visible to the owner.
type MemorySource struct {
	records []model.FlowRecord
	pos     int
}

// NewMemorySource wraps records without copying them.
func NewMemorySource(records []model.FlowRecord) *MemorySource {
	return &MemorySource{records: records}
}

func (m *MemorySource) EntryCount() uint64 {
	return uint64(len(m.records))
}

func (m *MemorySource) Next() (*model.FlowRecord, bool) {
	if m.pos >= len(m.records) {
		return nil, false
	}
	rec := &m.records[m.pos]
	m.pos++
	return rec, true
}

func (m *MemorySource) Reset() {
	m.pos = 0
}

// Records returns the underlying slice.
func (m *MemorySource) Records() []model.FlowRecord {
	return m.records
}
