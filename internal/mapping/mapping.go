// Package mapping rewrites card custom-field values from one instance's field ids to another's.
//
// Two instances share no field identifiers. Fields correspond only when their display names match
// exactly. When the target board defines the same name more than once, the first definition wins.
package mapping

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

// PropertyPrefix prefixes the field id in a card's property keys.
const PropertyPrefix = "id_"

// FieldMapper holds the name correspondence between a source and a target board.
type FieldMapper struct {
	sourceIDToName map[int]string
	targetNameToID map[string]int
	log            shared.LogSink
}

// NewFieldMapper indexes both definition sets. log receives one warning per dropped field.
func NewFieldMapper(sourceDefs, targetDefs []models.CustomField, log shared.LogSink) *FieldMapper {
	m := &FieldMapper{
		sourceIDToName: make(map[int]string, len(sourceDefs)),
		targetNameToID: make(map[string]int, len(targetDefs)),
		log:            log,
	}
	for _, d := range sourceDefs {
		m.sourceIDToName[d.ID] = d.Name
	}
	for _, d := range targetDefs {
		if _, ok := m.targetNameToID[d.Name]; !ok {
			m.targetNameToID[d.Name] = d.ID
		}
	}
	return m
}

// Map returns props keyed by target field ids, or nil when props is empty.
//
// Fields that cannot be resolved on either side are dropped with a warning.
func (m *FieldMapper) Map(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}

	out := make(map[string]any, len(props))
	for key, value := range props {
		srcID, ok := ParseKey(key)
		if !ok {
			m.warn("unrecognised property key", "key", key)
			continue
		}
		name, ok := m.sourceIDToName[srcID]
		if !ok {
			m.warn("source field not defined on source board", "field_id", srcID)
			continue
		}
		dstID, ok := m.targetNameToID[name]
		if !ok {
			m.warn("field has no match on target board", "field", name)
			continue
		}
		out[Key(dstID)] = transformValue(value)
	}
	return out
}

// SourceName returns the source field name of a property key.
func (m *FieldMapper) SourceName(key string) (string, bool) {
	id, ok := ParseKey(key)
	if !ok {
		return "", false
	}
	name, ok := m.sourceIDToName[id]
	return name, ok
}

func (m *FieldMapper) warn(msg string, kv ...any) {
	if m.log != nil {
		m.log.Warn(msg, kv...)
	}
}

// Key builds the property key of a field id.
func Key(fieldID int) string {
	return PropertyPrefix + strconv.Itoa(fieldID)
}

// ParseKey extracts the field id from a property key.
func ParseKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, PropertyPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return id, true
}

// transformValue collapses a non-empty list of objects carrying "id" into a list of those ids.
// The list qualifies when its first element is such an object; later elements without an id are dropped.
// Every other value is returned unchanged.
func transformValue(v any) any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return v
	}
	if first, ok := list[0].(map[string]any); !ok {
		return v
	} else if _, ok := first["id"]; !ok {
		return v
	}

	ids := make([]any, 0, len(list))
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := obj["id"]; ok {
			ids = append(ids, normaliseID(id))
		}
	}
	return ids
}

func normaliseID(id any) any {
	if n, ok := id.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	return id
}
