package geometry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Supported GeoJSON geometry types
const (
	TypePoint      = "Point"
	TypeLineString = "LineString"
	TypePolygon    = "Polygon"
)

// Error reports a malformed or unsupported geometry payload. It is raised
// before anything touches the database so a bad geometry can never leave a
// half-written feature behind.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "invalid geometry: " + e.Message
}

func errf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Position is a single lon/lat coordinate pair.
type Position [2]float64

// Geometry is the decoded, validated form of a GeoJSON geometry object.
// Exactly one of Point/Line/Rings is populated depending on Type.
type Geometry struct {
	Type  string
	Point Position
	Line  []Position
	Rings [][]Position
	SRID  int
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Decode validates a GeoJSON geometry object and returns its internal form.
// srid is the spatial reference system the coordinates are expressed in.
func Decode(data []byte, srid int) (*Geometry, error) {
	if len(data) == 0 {
		return nil, errf("geometry object is missing")
	}

	var raw rawGeometry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errf("could not parse geometry object: %v", err)
	}
	if len(raw.Coordinates) == 0 {
		return nil, errf("geometry has no coordinates")
	}

	g := &Geometry{Type: raw.Type, SRID: srid}

	switch raw.Type {
	case TypePoint:
		var coords []float64
		if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
			return nil, errf("Point coordinates must be an array of numbers")
		}
		if len(coords) != 2 {
			return nil, errf("Point requires exactly 2 coordinates, got %d", len(coords))
		}
		g.Point = Position{coords[0], coords[1]}

	case TypeLineString:
		line, err := decodePositions(raw.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(line) < 2 {
			return nil, errf("LineString requires at least 2 positions, got %d", len(line))
		}
		g.Line = line

	case TypePolygon:
		var rawRings []json.RawMessage
		if err := json.Unmarshal(raw.Coordinates, &rawRings); err != nil {
			return nil, errf("Polygon coordinates must be an array of rings")
		}
		if len(rawRings) == 0 {
			return nil, errf("Polygon requires at least one ring")
		}
		for i, rr := range rawRings {
			ring, err := decodePositions(rr)
			if err != nil {
				return nil, err
			}
			if len(ring) < 4 {
				return nil, errf("Polygon ring %d requires at least 4 positions, got %d", i, len(ring))
			}
			if ring[0] != ring[len(ring)-1] {
				return nil, errf("Polygon ring %d is not closed", i)
			}
			g.Rings = append(g.Rings, ring)
		}

	default:
		return nil, errf("unsupported geometry type %q", raw.Type)
	}

	return g, nil
}

func decodePositions(data []byte) ([]Position, error) {
	var coords [][]float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return nil, errf("coordinates must be an array of numeric positions")
	}
	positions := make([]Position, 0, len(coords))
	for _, c := range coords {
		if len(c) != 2 {
			return nil, errf("position requires exactly 2 coordinates, got %d", len(c))
		}
		positions = append(positions, Position{c[0], c[1]})
	}
	return positions, nil
}

// Encode renders the geometry back to its GeoJSON object form. The output is
// lossless for every supported type.
func (g *Geometry) Encode() json.RawMessage {
	var coords interface{}
	switch g.Type {
	case TypePoint:
		coords = []float64{g.Point[0], g.Point[1]}
	case TypeLineString:
		coords = positionsToSlices(g.Line)
	case TypePolygon:
		rings := make([][][]float64, 0, len(g.Rings))
		for _, ring := range g.Rings {
			rings = append(rings, positionsToSlices(ring))
		}
		coords = rings
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type":        g.Type,
		"coordinates": coords,
	})
	return data
}

func positionsToSlices(positions []Position) [][]float64 {
	out := make([][]float64, 0, len(positions))
	for _, p := range positions {
		out = append(out, []float64{p[0], p[1]})
	}
	return out
}

// WKT renders the geometry as Well-Known Text with 16 fixed fractional
// digits, matching the output the CSV export has always produced.
func (g *Geometry) WKT() string {
	switch g.Type {
	case TypePoint:
		return fmt.Sprintf("POINT (%s)", wktPosition(g.Point))
	case TypeLineString:
		return fmt.Sprintf("LINESTRING (%s)", wktPositions(g.Line))
	case TypePolygon:
		rings := make([]string, 0, len(g.Rings))
		for _, ring := range g.Rings {
			rings = append(rings, "("+wktPositions(ring)+")")
		}
		return fmt.Sprintf("POLYGON (%s)", strings.Join(rings, ", "))
	}
	return ""
}

func wktPosition(p Position) string {
	return fmt.Sprintf("%.16f %.16f", p[0], p[1])
}

func wktPositions(positions []Position) string {
	parts := make([]string, 0, len(positions))
	for _, p := range positions {
		parts = append(parts, wktPosition(p))
	}
	return strings.Join(parts, ", ")
}

type rawCRS struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

// ParseCRS reads an embedded GeoJSON CRS block of the form
// {"properties": {"name": "EPSG:<code>"}} and returns the referenced SRID.
// A missing or malformed block falls back to the given default instead of
// failing the request.
func ParseCRS(data []byte, fallback int) int {
	if len(data) == 0 {
		return fallback
	}

	var crs rawCRS
	if err := json.Unmarshal(data, &crs); err != nil {
		return fallback
	}

	name := strings.TrimSpace(crs.Properties.Name)
	if !strings.HasPrefix(name, "EPSG:") {
		return fallback
	}

	var code int
	if _, err := fmt.Sscanf(name, "EPSG:%d", &code); err != nil || code <= 0 {
		return fallback
	}
	return code
}
