// Package steps names the stages of one notifier run and the order they
// depend on.
package steps

import (
	"fmt"
	"slices"
)

// Step names, in run order.
const (
	LoadDedup     = "load_dedup"
	FetchListings = "fetch_listings"
	BuildRecords  = "build_records"
	SelectNew     = "select_new"
	Notify        = "notify"
	PersistDedup  = "persist_dedup"
)

// StepDefinition defines metadata for a run step
type StepDefinition struct {
	Name         string
	Description  string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	LoadDedup: {
		Name:        LoadDedup,
		Description: "Loading dedup state",
	},
	FetchListings: {
		Name:        FetchListings,
		Description: "Fetching listing pages",
	},
	BuildRecords: {
		Name:         BuildRecords,
		Description:  "Resolving sellers and building notification records",
		Dependencies: []string{FetchListings},
	},
	SelectNew: {
		Name:         SelectNew,
		Description:  "Selecting listings not notified before",
		Dependencies: []string{LoadDedup, BuildRecords},
	},
	Notify: {
		Name:         Notify,
		Description:  "Sending notifications",
		Dependencies: []string{SelectNew},
	},
	PersistDedup: {
		Name:         PersistDedup,
		Description:  "Persisting dedup state",
		Dependencies: []string{Notify},
	},
}

// Sequence is the order a run executes its steps in.
var Sequence = []string{LoadDedup, FetchListings, BuildRecords, SelectNew, Notify, PersistDedup}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// ValidateDependencies checks that every dependency of stepName is in completed.
func ValidateDependencies(stepName string, completed []string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !slices.Contains(completed, dep) {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// ValidateSequence checks that seq runs every step after its dependencies.
func ValidateSequence(seq []string) error {
	var done []string
	for _, step := range seq {
		if err := ValidateDependencies(step, done); err != nil {
			return err
		}
		done = append(done, step)
	}
	return nil
}

// Position returns the 1-based index of stepName in Sequence, or 0.
func Position(stepName string) int {
	return slices.Index(Sequence, stepName) + 1
}
