package main

import (
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/pkg/pcap"
	"flag"
	"log"
	"math/rand/v2"
	"net"
	"os"
)

func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	packetCount := flag.Int("c", 1000, "Number of packets to generate")
	target := flag.String("target", "", "Optional victim IPv4 address receiving the attack share")
	ratio := flag.Float64("ratio", 0.5, "Share of packets sent to the target")
	seed := flag.Uint64("seed", 0, "Random seed (0 draws one)")
	flag.Parse()

	opts := pcap.GeneratorOptions{Count: *packetCount, Seed: *seed, MaxPayload: 1400}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if *target != "" {
		addr, ok := model.IPToAddr(net.ParseIP(*target))
		if !ok {
			log.Fatalf("Invalid IPv4 target address: %s", *target)
		}
		opts.Target, opts.AttackRatio = addr, *ratio
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	log.Printf("Generating %d packets into %s (seed %d)...", *packetCount, *outputFile, opts.Seed)
	attacks, err := pcap.Generate(f, opts)
	if err != nil {
		log.Fatalf("Failed to generate packets: %v", err)
	}
	log.Printf("Successfully generated %d packets into %s, %d towards the target.", *packetCount, *outputFile, attacks)
}
