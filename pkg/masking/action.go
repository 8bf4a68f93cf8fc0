package masking

import (
	"context"
	"sort"

	"github.com/buildstream/datashield/pkg/graph"
)

// Report categories attached to affected objects in the store.
const (
	CategoryRemoved         = "Removed_Parameters"
	CategoryAnonymized      = "Anonymized_Parameters"
	CategoryRemovalFailures = "Removal_Failures"
)

// Target selects which side of a parameter an action's Check inspects.
type Target int

const (
	// TargetName checks the parameter name (removal actions).
	TargetName Target = iota
	// TargetValue checks the parameter value (anonymization).
	TargetValue
)

// Parameter is the logical (name, value) pair an action operates on, built
// by the walker from either schema. Entry is set for modern property leaves;
// Legacy is set for legacy parameter objects.
type Parameter struct {
	Name                    string
	Value                   any
	ApplicationInternalName string

	Entry  map[string]any   // modern leaf mapping, mutated in place
	Legacy *graph.Parameter // live legacy object, written through on mask
}

// Container is the tagged union holding a parameter under a key: exactly one
// field is non-nil. Map is a modern property mapping; Set is a legacy
// parameter collection.
type Container struct {
	Map map[string]any
	Set *graph.ParameterSet
}

// ReportSink receives run reports for UI display, attached to the affected
// object ids.
type ReportSink interface {
	AttachInfoToObjects(ctx context.Context, category string, objectIDs []string, message string) error
}

// Action combines a match predicate with a mutation and per-run bookkeeping.
// One action instance lives for exactly one run.
type Action interface {
	// Target declares whether Check receives parameter names or values.
	Target() Target

	// Check reports whether the subject qualifies for this action.
	Check(subject string) bool

	// Apply mutates the parameter in its container. A non-nil error means
	// the mutation could not be carried out; bookkeeping then records the
	// failure instead of a success.
	Apply(param *Parameter, node *graph.Node, container Container, key string) error

	// Report emits one summary message for the run, attached to all
	// affected object ids. No-op when nothing was affected.
	Report(ctx context.Context, sink ReportSink) error
}

// FailureReporter is implemented by actions whose mutations can fail
// per-parameter. The orchestrator decides how failures are surfaced.
type FailureReporter interface {
	FailureCount() int
	ReportFailures(ctx context.Context, sink ReportSink) error
}

// affectedSet maps node id to the parameter names affected on it, keeping
// node insertion order for stable reports.
type affectedSet struct {
	order []string
	names map[string][]string
}

func (a *affectedSet) add(nodeID, paramName string) {
	if a.names == nil {
		a.names = make(map[string][]string)
	}
	if _, ok := a.names[nodeID]; !ok {
		a.order = append(a.order, nodeID)
	}
	a.names[nodeID] = append(a.names[nodeID], paramName)
}

func (a *affectedSet) empty() bool {
	return len(a.order) == 0
}

func (a *affectedSet) objectIDs() []string {
	ids := make([]string, len(a.order))
	copy(ids, a.order)
	return ids
}

// uniqueNames returns the de-duplicated parameter names across all nodes,
// sorted. Only the final set matters for reporting.
func (a *affectedSet) uniqueNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, id := range a.order {
		for _, name := range a.names[id] {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (a *affectedSet) parameterCount() int {
	total := 0
	for _, names := range a.names {
		total += len(names)
	}
	return total
}
