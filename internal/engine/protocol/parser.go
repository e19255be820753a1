package protocol

import (
	"Go2NetEuclid/internal/model"
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ErrNotIPv4 is returned for packets without an IPv4 layer.
var ErrNotIPv4 = errors.New("not an IPv4 packet")

// ParsePacket extracts the address pair of an IPv4 packet. Transport
// protocols are not inspected, so ICMP and fragments are counted as well.
func ParsePacket(packet gopacket.Packet) (model.FlowRecord, error) {
	l := packet.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return model.FlowRecord{}, ErrNotIPv4
	}
	ip := l.(*layers.IPv4)

	src, ok := model.IPToAddr(ip.SrcIP)
	if !ok {
		return model.FlowRecord{}, ErrNotIPv4
	}
	dst, ok := model.IPToAddr(ip.DstIP)
	if !ok {
		return model.FlowRecord{}, ErrNotIPv4
	}
	return model.FlowRecord{SrcAddr: src, DstAddr: dst}, nil
}

// ParseEthernet decodes a raw Ethernet frame and extracts its address pair.
func ParseEthernet(data []byte) (model.FlowRecord, error) {
	return ParsePacket(gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy))
}

// SegmentSpec describes a synthetic TCP segment.
type SegmentSpec struct {
	SrcAddr, DstAddr uint32
	SrcPort, DstPort uint16
	Seq              uint32
	SYN              bool
	Payload          []byte
}

// BuildSegment serializes an Ethernet/IPv4/TCP frame described by s.
func BuildSegment(s SegmentSpec) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		SrcIP:    model.AddrToIP(s.SrcAddr),
		DstIP:    model.AddrToIP(s.DstAddr),
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(s.SrcPort),
		DstPort: layers.TCPPort(s.DstPort),
		Seq:     s.Seq,
		SYN:     s.SYN,
		Window:  14600,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(s.Payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
