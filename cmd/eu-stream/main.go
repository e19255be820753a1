package main

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/stream"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Configuration file (YAML or TOML)")
	flag.Parse()

	log.Println("Starting eu-stream...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	svc, err := stream.NewService(cfg)
	if err != nil {
		log.Fatalf("Failed to create stream service: %v", err)
	}
	if err := svc.Start(); err != nil {
		log.Fatalf("Failed to start stream service: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping detector...")
	svc.Stop()
	log.Println("Shutdown complete.")
}
