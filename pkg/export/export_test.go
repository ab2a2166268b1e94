package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geonotes_backend/pkg/jsonval"
)

func mustObject(t *testing.T, data string) *jsonval.Object {
	t.Helper()
	obj, err := jsonval.DecodeObject([]byte(data))
	require.NoError(t, err)
	return obj
}

// Selector order is the records' own document key order, first seen wins.
// The historical exporter enumerated keys in hash order, which was not
// reproducible; same columns, deterministic order instead.
func TestSelectorsPreOrderFirstSeenDedup(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"hello":"world","list":["a","b"],"dict":{"hello":"world","goodbye":"world"}}`),
	}

	assert.Equal(t,
		[]string{"hello", "list", "dict.hello", "dict.goodbye"},
		Selectors(records))
}

func TestSelectorsDedupAcrossRecords(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"first":"test2"}`),
		mustObject(t, `{"first":"test3","second":2,"third":{}}`),
		mustObject(t, `{"first":"test4","third":{"test4":"x"}}`),
	}

	assert.Equal(t,
		[]string{"first", "second", "third.test4"},
		Selectors(records))
}

func TestSelectorsNeverRecurseIntoGeometry(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"geometry":{"type":"Point","coordinates":[20,30]},"name":"a"}`),
	}

	assert.Equal(t, []string{"geometry", "name"}, Selectors(records))
}

func TestSelectorsEmptyInput(t *testing.T) {
	assert.Empty(t, Selectors(nil))
}

func TestWriteCSVMissingKeysYieldEmptyCells(t *testing.T) {
	records := []*jsonval.Object{mustObject(t, `{"c":1}`)}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, []string{"a.b", "c"}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a.b", "c"}, rows[0])
	assert.Equal(t, []string{"", "1"}, rows[1])
}

func TestWriteCSVGeometryColumn(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"geometry":{"type":"Point","coordinates":[20,30]},"name":"spot"}`),
	}
	selectors := Selectors(records)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, selectors))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"wkt", "name"}, rows[0])
	assert.Equal(t, []string{"POINT (20.0000000000000000 30.0000000000000000)", "spot"}, rows[1])
}

func TestWriteCSVUnicodeRoundTrip(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"first":"äÄöÖåÅ€","secondä":"η test"}`),
	}
	selectors := Selectors(records)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, selectors))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "secondä"}, rows[0])
	assert.Equal(t, []string{"äÄöÖåÅ€", "η test"}, rows[1])
}

func TestWriteCSVCellRendering(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"s":"text","n":2,"b":true,"z":null,"a":[1,"x"],"o":{"geometry":{"k":1}}}`),
	}
	selectors := Selectors(records)
	require.Equal(t, []string{"s", "n", "b", "z", "a", "o.geometry"}, selectors)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, selectors))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"text", "2", "true", "", `[1,"x"]`, `{"k":1}`}, rows[1])
}

func TestWriteCSVRowOrderFollowsRecords(t *testing.T) {
	records := []*jsonval.Object{
		mustObject(t, `{"n":"one"}`),
		mustObject(t, `{"n":"two"}`),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, []string{"n"}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"n"}, {"one"}, {"two"}}, rows)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "features-epsg-4326.csv", Filename("features", 4326))
}
