package sanitize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildstream/datashield/pkg/config"
	"github.com/buildstream/datashield/pkg/graph"
	"github.com/buildstream/datashield/pkg/masking"
)

// fakeCollaborator records every interaction the engine makes.
type fakeCollaborator struct {
	root      *graph.Node
	modelName string

	receiveErr error
	createErr  error
	// emptyVersionID simulates a commit that returns no version id.
	emptyVersionID bool

	reports []attachedReport
	views   [][]string

	successMsg string
	failureMsg string
	marked     bool
}

type attachedReport struct {
	category  string
	objectIDs []string
	message   string
}

func (f *fakeCollaborator) ReceiveVersion(context.Context) (*graph.Node, error) {
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	return f.root, nil
}

func (f *fakeCollaborator) ModelName(context.Context) (string, error) {
	return f.modelName, nil
}

func (f *fakeCollaborator) CreateNewVersion(_ context.Context, _ *graph.Node, modelName, message string) (string, string, error) {
	if f.createErr != nil {
		return "", "", f.createErr
	}
	if f.emptyVersionID {
		return "", "", nil
	}
	return "new-model", "new-version", nil
}

func (f *fakeCollaborator) AttachInfoToObjects(_ context.Context, category string, objectIDs []string, message string) error {
	f.reports = append(f.reports, attachedReport{category, objectIDs, message})
	return nil
}

func (f *fakeCollaborator) SetContextView(_ context.Context, views []string, _ bool) error {
	f.views = append(f.views, views)
	return nil
}

func (f *fakeCollaborator) MarkRunSuccess(_ context.Context, message string) error {
	f.successMsg = message
	f.marked = true
	return nil
}

func (f *fakeCollaborator) MarkRunFailed(_ context.Context, message string) error {
	f.failureMsg = message
	f.marked = true
	return nil
}

// testTree builds a root with one child carrying modern properties and one
// carrying a legacy parameter collection.
func testTree() *graph.Node {
	modern := &graph.Node{
		ID: "obj-modern",
		Properties: map[string]any{
			"Identity": map[string]any{
				"ifc_guid": map[string]any{"name": "ifc_guid", "value": "ABC123"},
				"owner":    map[string]any{"name": "owner", "value": "alice@example.com"},
			},
		},
	}

	set := graph.NewParameterSet()
	set.Set("speckle_type", "Base")
	set.Set("IFC_GUID", &graph.Parameter{
		TypeTag: graph.ParameterTypeTag,
		Name:    "ifc_guid",
		Value:   "DEF456",
	})
	legacy := &graph.Node{ID: "obj-legacy", Parameters: set}

	return &graph.Node{ID: "root", Elements: []*graph.Node{modern, legacy}}
}

func TestEngine_Run_PrefixRemoval(t *testing.T) {
	collab := &fakeCollaborator{root: testTree(), modelName: "Facade"}
	engine := NewEngine(collab)

	outcome, err := engine.Run(context.Background(), Inputs{
		SanitizationMode: config.ModePrefixMatching,
		ParameterInput:   "ifc_",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "Parameters processed successfully with shield function prefix-matching.", outcome.Message)
	assert.Equal(t, 2, outcome.ObjectsProcessed)
	assert.Equal(t, 2, outcome.RemovedParameters)
	assert.Zero(t, outcome.RemovalFailures)
	assert.Equal(t, "new-version", outcome.NewVersionID)

	require.Len(t, collab.reports, 1)
	assert.Equal(t, masking.CategoryRemoved, collab.reports[0].category)
	assert.Equal(t, "The following parameters were removed: ifc_guid", collab.reports[0].message)
	assert.ElementsMatch(t, []string{"obj-modern", "obj-legacy"}, collab.reports[0].objectIDs)

	// View pinned to the committed version.
	require.Len(t, collab.views, 1)
	assert.Equal(t, []string{"new-model@new-version"}, collab.views[0])

	// The parameters are gone from both schemas.
	identity := collab.root.Elements[0].Properties["Identity"].(map[string]any)
	assert.NotContains(t, identity, "ifc_guid")
	_, stillThere := collab.root.Elements[1].Parameters.Get("IFC_GUID")
	assert.False(t, stillThere)
}

func TestEngine_Run_StrictModeMessage(t *testing.T) {
	collab := &fakeCollaborator{root: testTree(), modelName: "Facade"}
	engine := NewEngine(collab)

	outcome, err := engine.Run(context.Background(), Inputs{
		SanitizationMode: config.ModePrefixMatching,
		ParameterInput:   "ifc_",
		StrictMode:       true,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Parameters processed successfully with shield function prefix-matching running in strict mode.",
		outcome.Message)
}

func TestEngine_Run_Anonymization(t *testing.T) {
	collab := &fakeCollaborator{root: testTree(), modelName: "Facade"}
	engine := NewEngine(collab)

	outcome, err := engine.Run(context.Background(), Inputs{
		SanitizationMode: config.ModeAnonymization,
	})
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, 1, outcome.ObjectsProcessed)
	assert.Equal(t, 1, outcome.AnonymizedParameters)

	require.Len(t, collab.reports, 1)
	assert.Equal(t, masking.CategoryAnonymized, collab.reports[0].category)
	assert.Equal(t, "Email addresses were anonymized in 1 parameters", collab.reports[0].message)

	identity := collab.root.Elements[0].Properties["Identity"].(map[string]any)
	owner := identity["owner"].(map[string]any)
	assert.Equal(t, "a***e@example.com", owner["value"])
}

func TestEngine_Run_NoMatches(t *testing.T) {
	collab := &fakeCollaborator{root: testTree(), modelName: "Facade"}
	engine := NewEngine(collab)

	outcome, err := engine.Run(context.Background(), Inputs{
		SanitizationMode: config.ModePrefixMatching,
		ParameterInput:   "nothing_matches_",
	})
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, "No parameters were processed.", outcome.Message)
	assert.Equal(t, "No parameters were processed.", collab.successMsg)
	assert.Zero(t, outcome.ObjectsProcessed)

	// Nothing matched: no report, no new version, no view pin.
	assert.Empty(t, collab.reports)
	assert.Empty(t, collab.views)
	assert.Empty(t, outcome.NewVersionID)
}

func TestEngine_Run_ConfigurationFailures(t *testing.T) {
	tests := []struct {
		name    string
		inputs  Inputs
		wantMsg string
	}{
		{
			name:    "missing prefix",
			inputs:  Inputs{SanitizationMode: config.ModePrefixMatching},
			wantMsg: "No parameter prefix has been set for PREFIX_MATCHING mode.",
		},
		{
			name:    "missing pattern",
			inputs:  Inputs{SanitizationMode: config.ModePatternMatching},
			wantMsg: "No parameter pattern has been set for PATTERN_MATCHING mode.",
		},
		{
			name: "malformed pattern",
			inputs: Inputs{
				SanitizationMode: config.ModePatternMatching,
				ParameterInput:   "/foo[/",
			},
			wantMsg: "Failed to create a valid action.",
		},
		{
			name:    "unknown mode",
			inputs:  Inputs{SanitizationMode: "obfuscation"},
			wantMsg: "Failed to create a valid action.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := &fakeCollaborator{root: testTree(), modelName: "Facade"}
			outcome, err := NewEngine(collab).Run(context.Background(), tt.inputs)
			require.NoError(t, err)

			assert.False(t, outcome.Succeeded)
			assert.Equal(t, tt.wantMsg, outcome.Message)
			assert.Equal(t, tt.wantMsg, collab.failureMsg)
			// The run never reached the model store beyond the failure mark.
			assert.Empty(t, collab.reports)
		})
	}
}

func TestEngine_Run_VersionCreationFails(t *testing.T) {
	t.Run("create returns error", func(t *testing.T) {
		collab := &fakeCollaborator{
			root:      testTree(),
			modelName: "Facade",
			createErr: errors.New("store unavailable"),
		}
		outcome, err := NewEngine(collab).Run(context.Background(), Inputs{
			SanitizationMode: config.ModePrefixMatching,
			ParameterInput:   "ifc_",
		})
		require.NoError(t, err)

		assert.False(t, outcome.Succeeded)
		assert.Equal(t, "Failed to create a new version.", outcome.Message)
		assert.Equal(t, "Failed to create a new version.", collab.failureMsg)
	})

	t.Run("create returns empty version id", func(t *testing.T) {
		collab := &fakeCollaborator{
			root:           testTree(),
			modelName:      "Facade",
			emptyVersionID: true,
		}
		outcome, err := NewEngine(collab).Run(context.Background(), Inputs{
			SanitizationMode: config.ModePrefixMatching,
			ParameterInput:   "ifc_",
		})
		require.NoError(t, err)

		assert.False(t, outcome.Succeeded)
		assert.Equal(t, "Failed to create a new version.", outcome.Message)
	})
}

func TestEngine_Run_ReceiveVersionError(t *testing.T) {
	collab := &fakeCollaborator{receiveErr: errors.New("store unavailable")}
	_, err := NewEngine(collab).Run(context.Background(), Inputs{
		SanitizationMode: config.ModePrefixMatching,
		ParameterInput:   "ifc_",
	})
	require.Error(t, err)
	// Best-effort failure mark carries the error text.
	assert.Contains(t, collab.failureMsg, "store unavailable")
}

func TestEngine_Run_RemovalFailureReport(t *testing.T) {
	// A parameter object stored under a key that Remove can find, plus one
	// the action cannot remove: simulate by removing the member up front so
	// both removal strategies miss.
	set := graph.NewParameterSet()
	stale := &graph.Parameter{TypeTag: graph.ParameterTypeTag, Name: "ifc_tag", Value: "x"}
	set.Set("IFC_TAG", stale)
	node := &graph.Node{ID: "obj-1", Parameters: set}

	collab := &fakeCollaborator{root: node, modelName: "Facade"}
	action := masking.NewPrefixRemovalAction("ifc_", false)

	// Empty the container between snapshot and apply to force the failure
	// path, as a concurrent mutation would.
	for _, key := range set.MemberNames() {
		param, _ := set.Parameter(key)
		set.Remove(key)
		err := action.Apply(&masking.Parameter{
			Name:                    param.Name,
			ApplicationInternalName: key,
			Legacy:                  param,
		}, node, masking.Container{Set: set}, key)
		assert.ErrorIs(t, err, masking.ErrRemovalFailed)
	}

	require.Equal(t, 1, action.FailureCount())
	require.NoError(t, action.ReportFailures(context.Background(), collab))

	require.Len(t, collab.reports, 1)
	assert.Equal(t, masking.CategoryRemovalFailures, collab.reports[0].category)
	assert.Contains(t, collab.reports[0].message, "ifc_tag")
}
