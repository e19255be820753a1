package model

import (
	"encoding/binary"
	"net"
)

// MaliciousBit is the flag bit used by both Classified and Original.
const MaliciousBit uint32 = 1

// RecordSize is the on-disk size of a FlowRecord in bytes.
const RecordSize = 16

// FlowRecord is a single source/destination observation.
// Its memory layout matches the 16-byte PKT record, so a mapped file can be
// viewed as a []FlowRecord directly on little-endian hosts.
type FlowRecord struct {
	SrcAddr uint32
	DstAddr uint32
	// Classified is written by classifiers, bit 0 marks a detected record.
	Classified uint32
	// Original is set during dataset preparation, bit 0 marks ground truth malicious traffic.
	Original uint32
}

// IsOriginalMalicious reports whether the record was labelled malicious by the dataset.
func (r *FlowRecord) IsOriginalMalicious() bool {
	return r.Original&MaliciousBit != 0
}

// IsClassifiedMalicious reports whether a classifier marked the record.
func (r *FlowRecord) IsClassifiedMalicious() bool {
	return r.Classified&MaliciousBit != 0
}

// MarkClassifiedMalicious sets the classified bit.
func (r *FlowRecord) MarkClassifiedMalicious() {
	r.Classified |= MaliciousBit
}

// MarkOriginalMalicious sets the ground truth bit.
func (r *FlowRecord) MarkOriginalMalicious() {
	r.Original |= MaliciousBit
}

// AddrToIP converts an address in host order (10.0.0.1 == 0x0A000001) to a net.IP.
func AddrToIP(addr uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, addr)
	return ip
}

// IPToAddr converts an IPv4 address to its host-order integer form.
// The second return value is false for non IPv4 addresses.
func IPToAddr(ip net.IP) (uint32, bool) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(ip4), true
}

// EncodeRecord writes r into buf using the PKT little-endian layout.
func EncodeRecord(buf []byte, r *FlowRecord) {
	binary.LittleEndian.PutUint32(buf[0:], r.SrcAddr)
	binary.LittleEndian.PutUint32(buf[4:], r.DstAddr)
	binary.LittleEndian.PutUint32(buf[8:], r.Classified)
	binary.LittleEndian.PutUint32(buf[12:], r.Original)
}

// DecodeRecord reads a record from buf using the PKT little-endian layout.
func DecodeRecord(buf []byte) FlowRecord {
	return FlowRecord{
		SrcAddr:    binary.LittleEndian.Uint32(buf[0:]),
		DstAddr:    binary.LittleEndian.Uint32(buf[4:]),
		Classified: binary.LittleEndian.Uint32(buf[8:]),
		Original:   binary.LittleEndian.Uint32(buf[12:]),
	}
}
