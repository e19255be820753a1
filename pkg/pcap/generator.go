package pcap

import (
	"Go2NetEuclid/internal/engine/protocol"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// GeneratorOptions controls synthetic traffic generation.
type GeneratorOptions struct {
	Count int
	// Target, when non-zero, receives AttackRatio of all packets from random sources.
	Target      uint32
	AttackRatio float64
	Seed        uint64
	MaxPayload  int
}

// Generate writes opts.Count random TCP SYN packets as a pcap stream to w.
// It returns the number of packets addressed to opts.Target.
func Generate(w io.Writer, opts GeneratorOptions) (int, error) {
	pcapWriter := pcapgo.NewWriter(w)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return 0, fmt.Errorf("failed to write pcap header: %w", err)
	}

	maxPayload := opts.MaxPayload
	if maxPayload <= 0 {
		maxPayload = 64
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5bd1e995))
	start := time.Unix(0, 0)
	attacks := 0

	for i := 0; i < opts.Count; i++ {
		seg := protocol.SegmentSpec{
			SrcAddr: rng.Uint32(),
			DstAddr: rng.Uint32(),
			SrcPort: uint16(rng.IntN(65535-1024) + 1024),
			DstPort: uint16(rng.IntN(65535-1024) + 1024),
			Seq:     rng.Uint32(),
			SYN:     true,
		}
		if opts.Target != 0 && rng.Float64() < opts.AttackRatio {
			seg.DstAddr = opts.Target
			attacks++
		}
		seg.Payload = make([]byte, rng.IntN(maxPayload)+1)
		for j := range seg.Payload {
			seg.Payload[j] = byte(rng.Uint32())
		}

		data, err := protocol.BuildSegment(seg)
		if err != nil {
			return attacks, fmt.Errorf("failed to serialize packet %d: %w", i, err)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * time.Microsecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := pcapWriter.WritePacket(ci, data); err != nil {
			return attacks, fmt.Errorf("failed to write packet %d: %w", i, err)
		}
	}
	return attacks, nil
}
