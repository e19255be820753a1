package model

// RecordSource is a sequential, forward-only stream of flow records.
type RecordSource interface {
	// EntryCount returns the number of records the source holds.
	EntryCount() uint64
	// Next returns a mutable view of the next record, or false at the end of the stream.
	// The view is only valid until the following call to Next or Reset.
	Next() (*FlowRecord, bool)
	// Reset rewinds the source to its first record.
	Reset()
}
