package graph

import "encoding/json"

// Wire field names for the store's object tree JSON.
const (
	fieldID         = "id"
	fieldType       = "speckle_type"
	fieldName       = "name"
	fieldProperties = "properties"
	fieldParameters = "parameters"
	fieldElements   = "elements"
)

// UnmarshalJSON decodes a node from the store's schemaless object JSON.
// Unknown fields are retained verbatim for the commit round-trip.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded := DecodeNode(raw)
	*n = *decoded
	return nil
}

// MarshalJSON encodes the node back into the store's object JSON, including
// any fields preserved from decode.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.encode())
}

// DecodeNode builds a Node from a decoded JSON object. Presence checks are
// duck-typed: fields of unexpected shape are treated as unknown data and
// preserved rather than rejected.
func DecodeNode(raw map[string]any) *Node {
	n := &Node{extra: make(map[string]any)}

	for key, value := range raw {
		switch key {
		case fieldID:
			if s, ok := value.(string); ok {
				n.ID = s
				continue
			}
		case fieldType:
			if s, ok := value.(string); ok {
				n.Type = s
				continue
			}
		case fieldName:
			if s, ok := value.(string); ok {
				n.Name = s
				continue
			}
		case fieldProperties:
			if m, ok := value.(map[string]any); ok {
				n.Properties = m
				continue
			}
		case fieldParameters:
			if m, ok := value.(map[string]any); ok {
				n.Parameters = decodeParameterSet(m)
				continue
			}
		case fieldElements:
			if items, ok := value.([]any); ok {
				for _, item := range items {
					if child, ok := item.(map[string]any); ok {
						n.Elements = append(n.Elements, DecodeNode(child))
					}
				}
				continue
			}
		}
		n.extra[key] = value
	}

	return n
}

func decodeParameterSet(raw map[string]any) *ParameterSet {
	set := NewParameterSet()
	for key, value := range raw {
		if IsSetMetadataKey(key) {
			set.Set(key, value)
			continue
		}
		obj, ok := value.(map[string]any)
		if !ok {
			set.Set(key, value)
			continue
		}
		tag, _ := obj[fieldType].(string)
		if tag != ParameterTypeTag {
			set.Set(key, value)
			continue
		}
		name, _ := obj[fieldName].(string)
		units, _ := obj["units"].(string)
		set.Set(key, &Parameter{
			TypeTag: tag,
			Name:    name,
			Value:   obj["value"],
			Units:   units,
		})
	}
	return set
}

func (n *Node) encode() map[string]any {
	out := make(map[string]any, len(n.extra)+6)
	for key, value := range n.extra {
		out[key] = value
	}
	if n.ID != "" {
		out[fieldID] = n.ID
	}
	if n.Type != "" {
		out[fieldType] = n.Type
	}
	if n.Name != "" {
		out[fieldName] = n.Name
	}
	if n.Properties != nil {
		out[fieldProperties] = n.Properties
	}
	if n.Parameters != nil {
		out[fieldParameters] = n.Parameters.encode()
	}
	if len(n.Elements) > 0 {
		elements := make([]any, len(n.Elements))
		for i, child := range n.Elements {
			elements[i] = child.encode()
		}
		out[fieldElements] = elements
	}
	return out
}

func (s *ParameterSet) encode() map[string]any {
	out := make(map[string]any, len(s.members))
	for key, value := range s.members {
		if p, ok := value.(*Parameter); ok {
			obj := map[string]any{
				fieldType: p.TypeTag,
				fieldName: p.Name,
				"value":   p.Value,
			}
			if p.Units != "" {
				obj["units"] = p.Units
			}
			out[key] = obj
			continue
		}
		out[key] = value
	}
	return out
}
