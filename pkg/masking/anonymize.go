package masking

import (
	"context"
	"fmt"

	"github.com/buildstream/datashield/pkg/graph"
)

// AnonymizationAction masks email addresses found in parameter values.
type AnonymizationAction struct {
	emails      *EmailMasker
	affected    affectedSet
	maskedCount int
}

// NewAnonymizationAction creates an anonymization action. It needs no
// pattern input: emails are detected in the values themselves.
func NewAnonymizationAction() *AnonymizationAction {
	return &AnonymizationAction{emails: NewEmailMasker()}
}

// Target reports that anonymization checks parameter values.
func (a *AnonymizationAction) Target() Target { return TargetValue }

// Check reports whether the value contains an email address.
func (a *AnonymizationAction) Check(subject string) bool {
	return a.emails.Contains(subject)
}

// Apply masks emails in the parameter value. Non-string values are left
// alone, and a value the masker does not change produces no bookkeeping.
// The masked value is written to the modern leaf mapping and, for legacy
// parameters, also to the live parameter object: the same logical value is
// exposed through both.
func (a *AnonymizationAction) Apply(param *Parameter, node *graph.Node, container Container, key string) error {
	original, ok := param.Value.(string)
	if !ok {
		return nil
	}

	masked := a.emails.MaskString(original)
	if masked == original {
		return nil
	}

	if param.Entry != nil {
		param.Entry["value"] = masked
	}
	if container.Set != nil {
		if live, ok := container.Set.Parameter(key); ok {
			live.Value = masked
		} else if param.Legacy != nil {
			param.Legacy.Value = masked
		}
	}
	param.Value = masked

	name := param.Name
	if name == "" {
		name = key
	}
	a.affected.add(node.ID, name)
	a.maskedCount++
	return nil
}

// Report attaches one summary of anonymized parameters. No-op when nothing
// was masked.
func (a *AnonymizationAction) Report(ctx context.Context, sink ReportSink) error {
	if a.affected.empty() {
		return nil
	}
	message := fmt.Sprintf("Email addresses were anonymized in %d parameters",
		len(a.affected.uniqueNames()))
	return sink.AttachInfoToObjects(ctx, CategoryAnonymized, a.affected.objectIDs(), message)
}

// MaskedCount returns the number of parameter values masked this run.
func (a *AnonymizationAction) MaskedCount() int {
	return a.maskedCount
}
