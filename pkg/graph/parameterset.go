package graph

import "sort"

// ParameterTypeTag identifies a member of a legacy parameter collection as
// an actual parameter object (as opposed to collection metadata).
const ParameterTypeTag = "Objects.BuiltElements.Revit.Parameter"

// setMetadataKeys are members of a legacy parameter collection that describe
// the collection itself and must never be treated as parameters.
var setMetadataKeys = map[string]struct{}{
	"speckle_type":       {},
	"id":                 {},
	"totalChildrenCount": {},
}

// IsSetMetadataKey reports whether key is collection metadata rather than a
// parameter member.
func IsSetMetadataKey(key string) bool {
	_, ok := setMetadataKeys[key]
	return ok
}

// Parameter is a live legacy parameter object. The same logical value may be
// exposed both through this object and through a synthetic record built from
// it, so mutations must write through to Value here.
type Parameter struct {
	TypeTag string
	Name    string
	Value   any
	Units   string
}

// ParameterSet is the legacy attribute-bearing parameter collection: a
// dynamic member store keyed by the application-internal parameter name.
// Members are either *Parameter objects or scalar collection metadata.
//
// It is one arm of the container union the actions mutate; the other arm is
// a plain property mapping.
type ParameterSet struct {
	members map[string]any
}

// NewParameterSet creates an empty legacy parameter collection.
func NewParameterSet() *ParameterSet {
	return &ParameterSet{members: make(map[string]any)}
}

// MemberNames returns all member keys, metadata included, sorted for
// deterministic iteration. The returned slice is a snapshot: removing
// members while ranging over it is well-defined.
func (s *ParameterSet) MemberNames() []string {
	names := make([]string, 0, len(s.members))
	for name := range s.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the raw member stored under key.
func (s *ParameterSet) Get(key string) (any, bool) {
	v, ok := s.members[key]
	return v, ok
}

// Parameter returns the member under key if it is a legacy parameter object.
func (s *ParameterSet) Parameter(key string) (*Parameter, bool) {
	p, ok := s.members[key].(*Parameter)
	return p, ok
}

// Set stores a member under key.
func (s *ParameterSet) Set(key string, v any) {
	s.members[key] = v
}

// Remove deletes the member under key, reporting whether it was present.
func (s *ParameterSet) Remove(key string) bool {
	if _, ok := s.members[key]; !ok {
		return false
	}
	delete(s.members, key)
	return true
}

// Len returns the number of members, metadata included.
func (s *ParameterSet) Len() int {
	return len(s.members)
}
