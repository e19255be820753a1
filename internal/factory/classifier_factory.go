package factory

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/model"
	"fmt"
	"log"
	"sort"
)

// ClassifierFactory builds a classifier from its configuration.
type ClassifierFactory func(def config.ClassifierDef) (model.Classifier, error)

// registry holds the mapping of classifier names to their factory functions.
var registry = make(map[string]ClassifierFactory)

// RegisterClassifier registers a new classifier type with its factory function.
func RegisterClassifier(name string, factory ClassifierFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("classifier type '%s' already registered", name))
	}
	registry[name] = factory
}

// Create builds the classifier named in def.
func Create(def config.ClassifierDef) (model.Classifier, error) {
	factory, ok := registry[def.Name]
	if !ok {
		return nil, &config.ConfigError{Field: "classifier.name", Reason: fmt.Sprintf("'%s' is not a registered classifier", def.Name)}
	}

	log.Printf("Creating classifier '%s'\n", def.Name)
	classifier, err := factory(def)
	if err != nil {
		return nil, fmt.Errorf("error creating classifier '%s': %w", def.Name, err)
	}
	return classifier, nil
}

// Registered returns the sorted names of all registered classifiers.
func Registered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
