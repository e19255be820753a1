package main

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/experiment"
	"Go2NetEuclid/internal/model"
	"Go2NetEuclid/internal/report"
	"flag"
	"log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Experiment configuration file (YAML or TOML)")
	flag.Parse()

	log.Println("Starting eu-runner...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Experiments) == 0 {
		log.Fatalf("No experiments defined in %s", *configPath)
	}
	log.Printf("Configuration loaded successfully, %d experiments.", len(cfg.Experiments))

	sinks, err := report.NewWriters(cfg.Writers)
	if err != nil {
		log.Fatalf("Failed to create writers: %v", err)
	}
	writers := make([]model.Writer, len(sinks))
	for i, s := range sinks {
		writers[i] = s
	}

	runner := experiment.NewRunner(writers...)
	results, err := runner.RunAll(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("All finished! %d experiments completed.", len(results))
}
