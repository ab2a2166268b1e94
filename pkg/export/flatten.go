package export

import (
	"geonotes_backend/pkg/jsonval"
)

// geometryKey is never recursed into: its value is a GeoJSON geometry
// object that the CSV writer renders as a single WKT column.
const geometryKey = "geometry"

// Selectors computes the dotted-path column selectors covering every record.
// Records are walked in order, keys in each object's own document order,
// descending into nested objects pre-order. The first occurrence of a path
// fixes its position; duplicates are skipped.
func Selectors(records []*jsonval.Object) []string {
	selectors := []string{}
	seen := make(map[string]struct{})

	var walk func(prefix string, obj *jsonval.Object)
	walk = func(prefix string, obj *jsonval.Object) {
		for _, key := range obj.Keys() {
			selector := key
			if prefix != "" {
				selector = prefix + "." + key
			}

			value, _ := obj.Get(key)
			if nested, ok := value.(*jsonval.Object); ok && key != geometryKey {
				walk(selector, nested)
				continue
			}

			if _, ok := seen[selector]; !ok {
				seen[selector] = struct{}{}
				selectors = append(selectors, selector)
			}
		}
	}

	for _, record := range records {
		walk("", record)
	}
	return selectors
}
