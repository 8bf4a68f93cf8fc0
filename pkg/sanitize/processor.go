package sanitize

import (
	"log/slog"
	"sort"

	"github.com/buildstream/datashield/pkg/graph"
	"github.com/buildstream/datashield/pkg/masking"
)

// ParameterProcessor applies one action across traversal contexts. It walks
// both the modern nested properties and the legacy parameter collection of
// each visited node.
type ParameterProcessor struct {
	action masking.Action

	// processed holds the ids of objects where at least one parameter
	// matched and the action was applied. Shared objects are counted once.
	processed map[string]struct{}

	log *slog.Logger
}

// NewParameterProcessor creates a processor for one run.
func NewParameterProcessor(action masking.Action) *ParameterProcessor {
	return &ParameterProcessor{
		action:    action,
		processed: make(map[string]struct{}),
		log:       slog.With("component", "parameter_processor"),
	}
}

// ProcessContext processes one traversal context. Modern properties take
// priority; the legacy collection is handled afterwards when present.
func (p *ParameterProcessor) ProcessContext(tc *graph.Context) {
	if tc == nil || tc.Current == nil {
		return
	}
	node := tc.Current

	if node.Properties != nil {
		p.processProperties(node.Properties, node)
	}
	if node.Parameters != nil {
		p.processLegacyParameters(node)
	}
}

// ObjectsProcessed returns the number of distinct objects where the action
// was applied.
func (p *ParameterProcessor) ObjectsProcessed() int {
	return len(p.processed)
}

// HasProcessed reports whether any parameter was processed at all.
func (p *ParameterProcessor) HasProcessed() bool {
	return len(p.processed) > 0
}

// processProperties recursively walks a modern properties mapping. Iteration
// runs over a sorted key snapshot so the action can delete entries from the
// mapping it is walking.
func (p *ParameterProcessor) processProperties(props map[string]any, node *graph.Node) {
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		child, ok := props[key].(map[string]any)
		if !ok {
			continue
		}

		if !graph.IsParameterLeaf(child) {
			p.processProperties(child, node)
			continue
		}

		name := key
		if n, ok := child["name"].(string); ok && n != "" {
			name = n
		}

		subject, ok := p.subject(name, child["value"])
		if !ok || !p.action.Check(subject) {
			continue
		}

		param := &masking.Parameter{
			Name:  name,
			Value: child["value"],
			Entry: child,
		}
		p.apply(param, node, masking.Container{Map: props}, key)
	}
}

// processLegacyParameters walks the legacy parameter collection, skipping
// collection metadata and non-parameter members.
func (p *ParameterProcessor) processLegacyParameters(node *graph.Node) {
	set := node.Parameters

	for _, key := range set.MemberNames() {
		if graph.IsSetMetadataKey(key) {
			continue
		}
		legacy, ok := set.Parameter(key)
		if !ok {
			continue
		}

		subject, ok := p.subject(legacy.Name, legacy.Value)
		if !ok || !p.action.Check(subject) {
			continue
		}

		param := &masking.Parameter{
			Name:                    legacy.Name,
			Value:                   legacy.Value,
			ApplicationInternalName: key,
			Legacy:                  legacy,
		}
		p.apply(param, node, masking.Container{Set: set}, key)
	}
}

// subject picks what Check inspects for the action's target. Value-targeted
// actions only consider string values.
func (p *ParameterProcessor) subject(name string, value any) (string, bool) {
	if p.action.Target() == masking.TargetName {
		return name, true
	}
	s, ok := value.(string)
	return s, ok
}

// apply runs the action and records the object as processed. A failed
// mutation still counts: the action's own bookkeeping carries the failure
// into the run report.
func (p *ParameterProcessor) apply(param *masking.Parameter, node *graph.Node, container masking.Container, key string) {
	if err := p.action.Apply(param, node, container, key); err != nil {
		p.log.Warn("Action failed on parameter",
			"object_id", node.ID,
			"parameter", param.Name,
			"error", err)
	}
	p.processed[node.ID] = struct{}{}
}
