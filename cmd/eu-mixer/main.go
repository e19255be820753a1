package main

import (
	"Go2NetEuclid/internal/mixer"
	"Go2NetEuclid/pkg/pkt"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Mixes legitimate and malicious PKT files into a new dataset:")
		fmt.Fprintln(flag.CommandLine.Output(), "  n/2 training, n/4 pre-attack, n/2 attack (malicious with probability p), n/4 post-attack")
		flag.PrintDefaults()
	}
	maliciousPath := flag.String("m", "", "The malicious PKT file path")
	legitPath := flag.String("l", "", "The legitimate PKT file path")
	outputDir := flag.String("o", "", "Output directory for the new PKT file")
	n := flag.Uint64("n", 0, "Number of records in the detection phase")
	p := flag.Float64("p", -1, "Fraction of malicious traffic in the attack phase (0-1.0)")
	seed := flag.Uint64("seed", 0, "Random seed (0 draws one)")
	flag.Parse()

	if *maliciousPath == "" || *legitPath == "" || *outputDir == "" || *n == 0 || *p < 0 {
		log.Println("Error: Missing parameters.")
		flag.Usage()
		os.Exit(1)
	}
	if *p > 1 {
		log.Println("Error: Percentage parameter out of range (0-1.0).")
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = rand.Uint64()
		log.Printf("Using random seed %d", *seed)
	}

	legit, err := pkt.Open(*legitPath)
	if err != nil {
		log.Fatalf("Failed to open legitimate dataset: %v", err)
	}
	defer legit.Close()
	malicious, err := pkt.Open(*maliciousPath)
	if err != nil {
		log.Fatalf("Failed to open malicious dataset: %v", err)
	}
	defer malicious.Close()

	mixed, err := mixer.Mix(legit, malicious, mixer.Options{DetectionSize: *n, Percentage: *p, Seed: *seed})
	if err != nil {
		log.Fatalf("Failed to mix datasets: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	outputPath := filepath.Join(*outputDir, pkt.FileName(*n, *p))
	log.Printf("Writing mixed dataset to %s...", outputPath)
	if _, err := pkt.WriteRecords(outputPath, mixed); err != nil {
		log.Fatalf("Failed to write mixed dataset: %v", err)
	}
	log.Println("Done!")
}
