package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePoint(t *testing.T) {
	g, err := Decode([]byte(`{"type":"Point","coordinates":[20,30]}`), 4326)
	require.NoError(t, err)

	assert.Equal(t, TypePoint, g.Type)
	assert.Equal(t, Position{20, 30}, g.Point)
	assert.Equal(t, 4326, g.SRID)
}

func TestDecodeLineString(t *testing.T) {
	g, err := Decode([]byte(`{"type":"LineString","coordinates":[[102,0],[103,1],[104,0],[105,1]]}`), 4326)
	require.NoError(t, err)

	assert.Equal(t, TypeLineString, g.Type)
	assert.Len(t, g.Line, 4)
	assert.Equal(t, Position{105, 1}, g.Line[3])
}

func TestDecodePolygon(t *testing.T) {
	g, err := Decode([]byte(`{"type":"Polygon","coordinates":[[[100,0],[101,0],[101,1],[100,1],[100,0]]]}`), 4326)
	require.NoError(t, err)

	assert.Equal(t, TypePolygon, g.Type)
	require.Len(t, g.Rings, 1)
	assert.Len(t, g.Rings[0], 5)
}

func TestDecodeRejectsMalformedGeometry(t *testing.T) {
	cases := map[string]string{
		"point with one coordinate":  `{"type":"Point","coordinates":[20]}`,
		"point with non-numeric":     `{"type":"Point","coordinates":["a","b"]}`,
		"point with wrong nesting":   `{"type":"Point","coordinates":[[20,30]]}`,
		"linestring single position": `{"type":"LineString","coordinates":[[102,0]]}`,
		"polygon with open ring":     `{"type":"Polygon","coordinates":[[[100,0],[101,0],[101,1],[100,1]]]}`,
		"polygon with short ring":    `{"type":"Polygon","coordinates":[[[100,0],[101,0],[100,0]]]}`,
		"polygon without rings":      `{"type":"Polygon","coordinates":[]}`,
		"unsupported type":           `{"type":"MultiPoint","coordinates":[[20,30]]}`,
		"missing coordinates":        `{"type":"Point"}`,
		"not json":                   `hello`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload), 4326)
			require.Error(t, err)

			var geomErr *Error
			assert.ErrorAs(t, err, &geomErr)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	payloads := []string{
		`{"type":"Point","coordinates":[20,30]}`,
		`{"type":"LineString","coordinates":[[102,0],[103,1]]}`,
		`{"type":"Polygon","coordinates":[[[100,0],[101,0],[101,1],[100,1],[100,0]]]}`,
	}

	for _, payload := range payloads {
		g, err := Decode([]byte(payload), 4326)
		require.NoError(t, err)

		again, err := Decode(g.Encode(), 4326)
		require.NoError(t, err)
		assert.Equal(t, g, again)
	}
}

func TestEncodeIsValidGeoJSON(t *testing.T) {
	g, err := Decode([]byte(`{"type":"Point","coordinates":[20,30]}`), 4326)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(g.Encode(), &decoded))
	assert.Equal(t, "Point", decoded["type"])
}

func TestWKT(t *testing.T) {
	point, err := Decode([]byte(`{"type":"Point","coordinates":[20,30]}`), 4326)
	require.NoError(t, err)
	assert.Equal(t, "POINT (20.0000000000000000 30.0000000000000000)", point.WKT())

	line, err := Decode([]byte(`{"type":"LineString","coordinates":[[102,0],[103,1]]}`), 4326)
	require.NoError(t, err)
	assert.Equal(t, "LINESTRING (102.0000000000000000 0.0000000000000000, 103.0000000000000000 1.0000000000000000)", line.WKT())

	polygon, err := Decode([]byte(`{"type":"Polygon","coordinates":[[[100,0],[101,0],[101,1],[100,1],[100,0]]]}`), 4326)
	require.NoError(t, err)
	assert.Equal(t, "POLYGON ((100.0000000000000000 0.0000000000000000, 101.0000000000000000 0.0000000000000000, 101.0000000000000000 1.0000000000000000, 100.0000000000000000 1.0000000000000000, 100.0000000000000000 0.0000000000000000))", polygon.WKT())
}

func TestWKTIsDeterministic(t *testing.T) {
	g, err := Decode([]byte(`{"type":"Point","coordinates":[20.1,30.25]}`), 4326)
	require.NoError(t, err)
	assert.Equal(t, g.WKT(), g.WKT())
}

func TestParseCRS(t *testing.T) {
	assert.Equal(t, 3857, ParseCRS([]byte(`{"type":"name","properties":{"name":"EPSG:3857"}}`), 4326))

	// malformed blocks fall back instead of failing the write
	assert.Equal(t, 4326, ParseCRS(nil, 4326))
	assert.Equal(t, 4326, ParseCRS([]byte(`{"properties":{"name":"urn:ogc:whatever"}}`), 4326))
	assert.Equal(t, 4326, ParseCRS([]byte(`{"properties":{}}`), 4326))
	assert.Equal(t, 4326, ParseCRS([]byte(`not json`), 4326))
	assert.Equal(t, 4326, ParseCRS([]byte(`{"properties":{"name":"EPSG:abc"}}`), 4326))
}
