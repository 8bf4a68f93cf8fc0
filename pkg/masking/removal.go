package masking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildstream/datashield/pkg/graph"
)

// ErrRemovalFailed indicates a matched parameter could not be removed from
// its legacy container through any strategy.
var ErrRemovalFailed = errors.New("parameter removal failed")

// RemovalAction removes parameters whose name matches the configured
// matcher. Failed removals are recorded separately from successes so the
// orchestrator can surface them instead of silently claiming success.
type RemovalAction struct {
	matcher  Matcher
	affected affectedSet
	failed   affectedSet
}

// NewPrefixRemovalAction creates a removal action matching by prefix.
func NewPrefixRemovalAction(prefix string, strict bool) *RemovalAction {
	return &RemovalAction{matcher: NewPrefixMatcher(prefix, strict)}
}

// NewPatternRemovalAction creates a removal action matching by glob or
// regex pattern. Pattern compilation errors are configuration errors.
func NewPatternRemovalAction(pattern string, strict bool) (*RemovalAction, error) {
	matcher, err := NewPatternMatcher(pattern, strict)
	if err != nil {
		return nil, err
	}
	return &RemovalAction{matcher: matcher}, nil
}

// Target reports that removal checks parameter names.
func (a *RemovalAction) Target() Target { return TargetName }

// Check delegates to the configured matcher.
func (a *RemovalAction) Check(subject string) bool {
	return a.matcher.Matches(subject)
}

// Apply deletes the parameter under key from its container. For a plain
// property mapping deletion cannot fail. For a legacy collection it tries
// the key first, then the application-internal name when that differs; if
// both are absent the failure is recorded and returned.
func (a *RemovalAction) Apply(param *Parameter, node *graph.Node, container Container, key string) error {
	name := param.Name
	if name == "" {
		name = key
	}

	if container.Map != nil {
		delete(container.Map, key)
		a.affected.add(node.ID, name)
		return nil
	}

	if container.Set != nil {
		if container.Set.Remove(key) {
			a.affected.add(node.ID, name)
			return nil
		}
		if alt := param.ApplicationInternalName; alt != "" && alt != key && container.Set.Remove(alt) {
			a.affected.add(node.ID, name)
			return nil
		}
		a.failed.add(node.ID, name)
		return fmt.Errorf("%w: parameter %q on object %s", ErrRemovalFailed, name, node.ID)
	}

	a.failed.add(node.ID, name)
	return fmt.Errorf("%w: parameter %q has no container", ErrRemovalFailed, name)
}

// Report attaches one summary of all removed parameters. No-op when nothing
// was removed.
func (a *RemovalAction) Report(ctx context.Context, sink ReportSink) error {
	if a.affected.empty() {
		return nil
	}
	message := "The following parameters were removed: " + strings.Join(a.affected.uniqueNames(), ", ")
	return sink.AttachInfoToObjects(ctx, CategoryRemoved, a.affected.objectIDs(), message)
}

// FailureCount returns the number of parameters that matched but could not
// be removed.
func (a *RemovalAction) FailureCount() int {
	return a.failed.parameterCount()
}

// ReportFailures attaches a summary of parameters that could not be removed.
func (a *RemovalAction) ReportFailures(ctx context.Context, sink ReportSink) error {
	if a.failed.empty() {
		return nil
	}
	message := "The following parameters matched but could not be removed: " +
		strings.Join(a.failed.uniqueNames(), ", ")
	return sink.AttachInfoToObjects(ctx, CategoryRemovalFailures, a.failed.objectIDs(), message)
}

// AffectedParameterCount returns the number of removed parameters.
func (a *RemovalAction) AffectedParameterCount() int {
	return a.affected.parameterCount()
}
