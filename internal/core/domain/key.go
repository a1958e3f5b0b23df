package domain

import (
	"sort"
	"strings"
)

// Key identifies a cached query result: an entity type plus the filter
// parameters the query was issued with. Two keys with the same entity and
// the same filter set render to the same string regardless of map order.
type Key struct {
	Entity  EntityType
	Filters map[string]string
}

// ListKey builds the key for a filtered listing of an entity type.
func ListKey(entity EntityType, filters map[string]string) Key {
	return Key{Entity: entity, Filters: filters}
}

// ItemKey builds the key for a single entity fetched by ID.
func ItemKey(entity EntityType, id string) Key {
	return Key{Entity: entity, Filters: map[string]string{"id": id}}
}

// String renders the canonical form, e.g. "access_point:site=s1:status=up".
// Filter params are sorted so the rendering is deterministic.
func (k Key) String() string {
	if len(k.Filters) == 0 {
		return string(k.Entity)
	}

	names := make([]string, 0, len(k.Filters))
	for name := range k.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(string(k.Entity))
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(k.Filters[name])
	}
	return b.String()
}

// Prefix returns the invalidation prefix covering every cached query for
// the entity type, listings included.
func Prefix(entity EntityType) string {
	return string(entity)
}
