package experiment

import (
	"fmt"
)

// ConfigurationError reports a misconfigured protocol. It is returned before
// any operation runs.
type ConfigurationError struct {
	Protocol string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Protocol == "" {
		return fmt.Sprintf("experiment: %s", e.Reason)
	}
	return fmt.Sprintf("experiment: protocol %q: %s", e.Protocol, e.Reason)
}

// Configuration failure reasons.
const (
	ReasonMissingName       = "please provide an experiment name"
	ReasonMissingOperation  = "missing operation"
	ReasonMissingCompare    = "missing compare function"
	ReasonMissingEnable     = "missing enable predicate"
	ReasonMissingHandler    = "missing divergence handler"
	ReasonMissingProtocol   = "nil protocol"
	ReasonMissingLegacy     = "legacy operation is not set"
	ReasonMissingExperiment = "experiment operation is not set"
	ReasonAlreadyExecuted   = "protocol already executed"
)

// DivergenceError reports that the legacy and experiment outcomes of a
// protocol disagree. Legacy and Experiment hold human-readable dumps of the
// two outcomes.
type DivergenceError struct {
	Protocol   string
	Legacy     string
	Experiment string
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("experiment: %s; legacy result: %s; experiment result: %s",
		e.Protocol, e.Legacy, e.Experiment)
}

func newDivergenceError[T any](name string, legacy, experiment Outcome[T]) *DivergenceError {
	return &DivergenceError{
		Protocol:   name,
		Legacy:     legacy.String(),
		Experiment: experiment.String(),
	}
}
