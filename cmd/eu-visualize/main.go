package main

import (
	"Go2NetEuclid/pkg/pkt"
	"flag"
	"log"
	"os"
)

func main() {
	file := flag.String("f", "", "The PKT file path")
	flag.Parse()

	if *file == "" {
		log.Println("Error: Missing parameters.")
		flag.Usage()
		os.Exit(1)
	}

	f, err := pkt.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open PKT file: %v", err)
	}
	defer f.Close()

	if err := pkt.Dump(os.Stdout, f); err != nil {
		log.Fatalf("Failed to print PKT file: %v", err)
	}
}
