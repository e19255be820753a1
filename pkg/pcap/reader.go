package pcap

import (
	"Go2NetEuclid/internal/engine/protocol"
	"Go2NetEuclid/internal/model"
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// Reader reads address pairs from a pcap file.
type Reader struct {
	file    *os.File
	reader  *pcapgo.Reader
	skipped uint64
}

// NewReader opens the pcap file at filePath.
func NewReader(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header of '%s': %w", filePath, err)
	}
	return &Reader{file: f, reader: r}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() {
	r.file.Close()
}

// Skipped returns the number of packets without an IPv4 layer seen so far.
func (r *Reader) Skipped() uint64 {
	return r.skipped
}

// ReadRecords sends the address pair of every IPv4 packet to out and closes
// the channel when the file is exhausted. Other packets are skipped.
func (r *Reader) ReadRecords(out chan<- model.FlowRecord) {
	defer close(out)

	packetSource := gopacket.NewPacketSource(r.reader, r.reader.LinkType())
	for packet := range packetSource.Packets() {
		rec, err := protocol.ParsePacket(packet)
		if err != nil {
			r.skipped++
			continue
		}
		out <- rec
	}
}

// ReadAll collects every IPv4 address pair of the file.
func (r *Reader) ReadAll() []model.FlowRecord {
	out := make(chan model.FlowRecord, 1024)
	go r.ReadRecords(out)

	var records []model.FlowRecord
	for rec := range out {
		records = append(records, rec)
	}
	return records
}
