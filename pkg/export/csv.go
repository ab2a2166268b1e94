package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"geonotes_backend/pkg/geometry"
	"geonotes_backend/pkg/jsonval"
)

// WriteCSV emits one header row followed by one row per record. The
// geometry selector is labeled wkt and rendered as Well-Known Text; every
// other selector is resolved by walking the record along its dotted path,
// with a missing key at any depth producing an empty cell.
func WriteCSV(w io.Writer, records []*jsonval.Object, selectors []string) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		if selector == geometryKey {
			header = append(header, "wkt")
		} else {
			header = append(header, selector)
		}
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, len(selectors))
	for _, record := range records {
		for i, selector := range selectors {
			if selector == geometryKey {
				cell, err := wktCell(record)
				if err != nil {
					return err
				}
				row[i] = cell
				continue
			}
			row[i] = cellString(resolve(record, selector))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Filename derives the download filename for an export of the given kind,
// tagged with the spatial reference system of the exported geometries.
func Filename(kind string, srid int) string {
	return fmt.Sprintf("%s.csv", slug.Make(fmt.Sprintf("%s-epsg-%d", kind, srid)))
}

func resolve(record *jsonval.Object, selector string) jsonval.Value {
	var value jsonval.Value = record
	for _, part := range strings.Split(selector, ".") {
		obj, ok := value.(*jsonval.Object)
		if !ok {
			return nil
		}
		value, ok = obj.Get(part)
		if !ok {
			return nil
		}
	}
	return value
}

func wktCell(record *jsonval.Object) (string, error) {
	value, ok := record.Get(geometryKey)
	if !ok {
		return "", nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	g, err := geometry.Decode(raw, 0)
	if err != nil {
		return "", err
	}
	return g.WKT(), nil
}

func cellString(value jsonval.Value) string {
	switch v := value.(type) {
	case nil, jsonval.Null:
		return ""
	case jsonval.String:
		return string(v)
	case jsonval.Number:
		return string(v)
	case jsonval.Bool:
		return strconv.FormatBool(bool(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
