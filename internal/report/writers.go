// Package report persists experiment results and window verdicts.
package report

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"fmt"
	"log"
)

// Sink is implemented by writers that accept both whole experiments and
// streamed window reports.
type Sink interface {
	model.Writer
	model.WindowWriter
}

// NewWriter builds the writer described by def.
func NewWriter(def config.WriterDef) (Sink, error) {
	switch def.Type {
	case "text":
		root := def.Text.RootPath
		if root == "" {
			root = "results"
		}
		return NewTextWriter(root), nil
	case "clickhouse":
		return NewClickHouseWriter(def.ClickHouse)
	default:
		return nil, &config.ConfigError{Field: "writers.type", Reason: fmt.Sprintf("unknown writer type '%s'", def.Type)}
	}
}

// NewWriters builds all enabled writers. Configuration errors are returned;
// a writer that fails to connect is skipped with a warning.
func NewWriters(defs []config.WriterDef) ([]Sink, error) {
	var sinks []Sink
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		sink, err := NewWriter(def)
		if err != nil {
			if _, ok := err.(*config.ConfigError); ok {
				return nil, err
			}
			log.Printf("Warning: failed to create %s writer: %v", def.Type, err)
			continue
		}
		log.Printf("Created %s writer", def.Type)
		sinks = append(sinks, sink)
	}
	return sinks, nil
}
