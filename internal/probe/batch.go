package probe

import (
	"Go2NetEuclid/internal/model"
	"fmt"
)

// EncodeBatch packs records into a NATS payload of consecutive 16-byte PKT records.
func EncodeBatch(records []model.FlowRecord) []byte {
	data := make([]byte, len(records)*model.RecordSize)
	for i := range records {
		model.EncodeRecord(data[i*model.RecordSize:], &records[i])
	}
	return data
}

// DecodeBatch unpacks a payload produced by EncodeBatch. The Classified bit
// is cleared since verdicts are produced by the receiving detector.
func DecodeBatch(data []byte) ([]model.FlowRecord, error) {
	if len(data)%model.RecordSize != 0 {
		return nil, fmt.Errorf("batch size %d is not a multiple of %d", len(data), model.RecordSize)
	}
	records := make([]model.FlowRecord, len(data)/model.RecordSize)
	for i := range records {
		records[i] = model.DecodeRecord(data[i*model.RecordSize:])
		records[i].Classified = 0
	}
	return records, nil
}
