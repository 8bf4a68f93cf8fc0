package masking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildstream/datashield/pkg/graph"
)

// recordingSink captures report attachments for assertions.
type recordingSink struct {
	categories []string
	objectIDs  [][]string
	messages   []string
}

func (s *recordingSink) AttachInfoToObjects(_ context.Context, category string, objectIDs []string, message string) error {
	s.categories = append(s.categories, category)
	s.objectIDs = append(s.objectIDs, objectIDs)
	s.messages = append(s.messages, message)
	return nil
}

func TestRemovalAction_ApplyToPropertyMapping(t *testing.T) {
	action := NewPrefixRemovalAction("Foo_", false)
	node := &graph.Node{ID: "n1"}
	props := map[string]any{
		"Foo": map[string]any{"name": "Foo_Bar", "value": "x"},
	}

	require.True(t, action.Check("Foo_Bar"))
	param := &Parameter{Name: "Foo_Bar", Value: "x", Entry: props["Foo"].(map[string]any)}
	require.NoError(t, action.Apply(param, node, Container{Map: props}, "Foo"))

	assert.NotContains(t, props, "Foo")
	assert.Equal(t, 1, action.AffectedParameterCount())
	assert.Zero(t, action.FailureCount())
}

func TestRemovalAction_ApplyToLegacySet(t *testing.T) {
	action := NewPrefixRemovalAction("wall", false)
	node := &graph.Node{ID: "n1"}
	set := graph.NewParameterSet()
	set.Set("WALL_KEY", &graph.Parameter{TypeTag: graph.ParameterTypeTag, Name: "Wall Name", Value: "x"})

	param := &Parameter{Name: "Wall Name", ApplicationInternalName: "WALL_KEY"}
	require.NoError(t, action.Apply(param, node, Container{Set: set}, "WALL_KEY"))

	_, present := set.Get("WALL_KEY")
	assert.False(t, present)
}

func TestRemovalAction_LegacyAlternateNameFallback(t *testing.T) {
	action := NewPrefixRemovalAction("wall", false)
	node := &graph.Node{ID: "n1"}
	set := graph.NewParameterSet()
	set.Set("INTERNAL_KEY", &graph.Parameter{TypeTag: graph.ParameterTypeTag, Name: "Wall Name", Value: "x"})

	// Primary key is absent; removal retries under the internal name.
	param := &Parameter{Name: "Wall Name", ApplicationInternalName: "INTERNAL_KEY"}
	require.NoError(t, action.Apply(param, node, Container{Set: set}, "DISPLAY_KEY"))

	_, present := set.Get("INTERNAL_KEY")
	assert.False(t, present)
}

func TestRemovalAction_FailureIsRecordedNotSwallowed(t *testing.T) {
	action := NewPrefixRemovalAction("wall", false)
	node := &graph.Node{ID: "n1"}
	set := graph.NewParameterSet()

	param := &Parameter{Name: "Wall Name", ApplicationInternalName: "GONE"}
	err := action.Apply(param, node, Container{Set: set}, "GONE")

	assert.ErrorIs(t, err, ErrRemovalFailed)
	assert.Zero(t, action.AffectedParameterCount())
	assert.Equal(t, 1, action.FailureCount())

	sink := &recordingSink{}
	require.NoError(t, action.Report(context.Background(), sink))
	assert.Empty(t, sink.categories, "no success report when nothing was removed")

	require.NoError(t, action.ReportFailures(context.Background(), sink))
	require.Len(t, sink.categories, 1)
	assert.Equal(t, CategoryRemovalFailures, sink.categories[0])
	assert.Equal(t, []string{"n1"}, sink.objectIDs[0])
}

func TestRemovalAction_Report(t *testing.T) {
	action := NewPrefixRemovalAction("Foo_", false)
	propsA := map[string]any{"k": "leaf"}
	propsB := map[string]any{"k": "leaf"}

	require.NoError(t, action.Apply(&Parameter{Name: "Foo_B"}, &graph.Node{ID: "n2"}, Container{Map: propsB}, "k"))
	require.NoError(t, action.Apply(&Parameter{Name: "Foo_A"}, &graph.Node{ID: "n1"}, Container{Map: propsA}, "k"))
	require.NoError(t, action.Apply(&Parameter{Name: "Foo_A"}, &graph.Node{ID: "n2"}, Container{Map: propsB}, "k"))

	sink := &recordingSink{}
	require.NoError(t, action.Report(context.Background(), sink))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, CategoryRemoved, sink.categories[0])
	// Node ids keep insertion order; names are de-duplicated and sorted.
	assert.Equal(t, []string{"n2", "n1"}, sink.objectIDs[0])
	assert.Equal(t, "The following parameters were removed: Foo_A, Foo_B", sink.messages[0])
}

func TestAnonymizationAction_ApplyToPropertyLeaf(t *testing.T) {
	action := NewAnonymizationAction()
	node := &graph.Node{ID: "n1"}
	entry := map[string]any{"name": "Owner", "value": "email@example.com"}
	props := map[string]any{"Owner": entry}

	require.True(t, action.Check("email@example.com"))
	param := &Parameter{Name: "Owner", Value: entry["value"], Entry: entry}
	require.NoError(t, action.Apply(param, node, Container{Map: props}, "Owner"))

	assert.Equal(t, "e***l@example.com", entry["value"])
	assert.Equal(t, 1, action.MaskedCount())
}

func TestAnonymizationAction_TwoLocationWriteForLegacy(t *testing.T) {
	action := NewAnonymizationAction()
	node := &graph.Node{ID: "n1"}
	live := &graph.Parameter{TypeTag: graph.ParameterTypeTag, Name: "Owner", Value: "ab@x.io"}
	set := graph.NewParameterSet()
	set.Set("OWNER_KEY", live)

	param := &Parameter{
		Name:                    "Owner",
		Value:                   "ab@x.io",
		ApplicationInternalName: "OWNER_KEY",
		Legacy:                  live,
	}
	require.NoError(t, action.Apply(param, node, Container{Set: set}, "OWNER_KEY"))

	assert.Equal(t, "a*@x.io", live.Value, "live legacy object is written through")
	assert.Equal(t, "a*@x.io", param.Value)
}

func TestAnonymizationAction_SkipsNonStringAndUnchanged(t *testing.T) {
	action := NewAnonymizationAction()
	node := &graph.Node{ID: "n1"}

	require.NoError(t, action.Apply(&Parameter{Name: "Count", Value: 7}, node, Container{}, "Count"))
	require.NoError(t, action.Apply(&Parameter{Name: "Note", Value: "no email"}, node, Container{}, "Note"))

	assert.Zero(t, action.MaskedCount())

	sink := &recordingSink{}
	require.NoError(t, action.Report(context.Background(), sink))
	assert.Empty(t, sink.categories, "empty result set reports nothing")
}

func TestAnonymizationAction_ReportMessage(t *testing.T) {
	action := NewAnonymizationAction()
	node := &graph.Node{ID: "n1"}

	entryA := map[string]any{"value": "a@x.io"}
	entryB := map[string]any{"value": "b@x.io"}
	require.NoError(t, action.Apply(&Parameter{Name: "Owner", Value: "a@x.io", Entry: entryA}, node, Container{Map: map[string]any{}}, "Owner"))
	require.NoError(t, action.Apply(&Parameter{Name: "Reviewer", Value: "b@x.io", Entry: entryB}, node, Container{Map: map[string]any{}}, "Reviewer"))

	sink := &recordingSink{}
	require.NoError(t, action.Report(context.Background(), sink))

	require.Len(t, sink.messages, 1)
	assert.Equal(t, CategoryAnonymized, sink.categories[0])
	assert.Equal(t, "Email addresses were anonymized in 2 parameters", sink.messages[0])
	assert.Equal(t, []string{"n1"}, sink.objectIDs[0])
}
