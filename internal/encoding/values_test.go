package encoding

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTableRoundTrip(t *testing.T) {
	in := Table{
		"str":   "hello",
		"i32":   int32(-7),
		"u32":   uint32(7),
		"bool":  true,
		"bytes": []byte{1, 2, 3},
		"ts":    time.Unix(1700000000, 0).UTC(),
		"dec":   Decimal{Scale: 2, Value: 1234},
		"nested": Table{
			"inner": "value",
		},
		"list": []interface{}{int32(1), "two", true},
		"nil":  nil,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, in))

	out, err := ReadTable(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("table round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTableRoundTripEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, Table{}))

	out, err := ReadTable(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestReadTableMalformed(t *testing.T) {
	// a long-string length prefix claiming far more data than is present.
	_, err := ReadTable(bytes.NewReader([]byte{0, 0, 0, 20, 'x'}))
	require.Error(t, err)
}
