package main

import (
	"Go2NetEuclid/pkg/pcap"
	"Go2NetEuclid/pkg/pkt"
	"flag"
	"log"
	"os"
)

func main() {
	input := flag.String("i", "", "Input pcap file")
	output := flag.String("o", "", "Output PKT file path")
	flag.Parse()

	if *input == "" || *output == "" {
		log.Println("Error: -i and -o are required.")
		flag.Usage()
		os.Exit(1)
	}

	reader, err := pcap.NewReader(*input)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()

	log.Printf("Reading packets from '%s'...", *input)
	records := reader.ReadAll()
	log.Printf("Read %d IPv4 packets, skipped %d.", len(records), reader.Skipped())

	size, err := pkt.WriteRecords(*output, records)
	if err != nil {
		log.Fatalf("Failed to write PKT file: %v", err)
	}
	log.Printf("PKT file size is %d bytes. Done!", size)
}
