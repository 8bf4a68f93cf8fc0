// Package sanitize orchestrates a sanitization run: it selects the action for
// the requested mode, walks the received object tree, applies the action, and
// drives reporting and version creation against the model store.
package sanitize

import (
	"context"

	"github.com/buildstream/datashield/pkg/graph"
	"github.com/buildstream/datashield/pkg/masking"
)

// Collaborator is the model-store surface a run drives. The production
// implementation lives in pkg/modelstore; tests substitute a fake.
type Collaborator interface {
	masking.ReportSink

	// ReceiveVersion fetches the root object tree of the triggering version.
	ReceiveVersion(ctx context.Context) (*graph.Node, error)

	// ModelName returns the display name of the triggering model.
	ModelName(ctx context.Context) (string, error)

	// CreateNewVersion commits the mutated tree as a new version under the
	// given model name and returns the new model and version ids.
	CreateNewVersion(ctx context.Context, root *graph.Node, modelName, message string) (newModelID, newVersionID string, err error)

	// SetContextView pins the run's result view to the given model@version
	// references.
	SetContextView(ctx context.Context, views []string, includeDefault bool) error

	// MarkRunSuccess records the run as succeeded with a summary message.
	MarkRunSuccess(ctx context.Context, message string) error

	// MarkRunFailed records the run as failed with a reason.
	MarkRunFailed(ctx context.Context, message string) error
}
