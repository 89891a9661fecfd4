package diag

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDecode_JSON(t *testing.T) {
	input := `[
  {"path": "a.py", "line": 5, "column": 3, "code": 10, "description": "Incompatible return type"},
  {"file": "b.py", "line": 1, "code": 20, "message": "Undefined name", "name": "extra field"}
]`
	got, err := Decode(strings.NewReader(input), FeedJSON)
	require.NoError(t, err)
	assert.Equal(t, Batch{
		{Path: "a.py", Line: 5, Column: 3, Code: 10, Message: "Incompatible return type"},
		{Path: "b.py", Line: 1, Column: 0, Code: 20, Message: "Undefined name"},
	}, got)
}

func TestDecode_EmptyList(t *testing.T) {
	got, err := Decode(strings.NewReader("[]\n"), FeedJSON)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not json":       "pyre crashed",
		"object":         `{"path": "a.py"}`,
		"null":           "null",
		"missing path":   `[{"line": 1, "code": 1}]`,
		"missing line":   `[{"path": "a.py", "code": 1}]`,
		"zero line":      `[{"path": "a.py", "line": 0, "code": 1}]`,
		"missing code":   `[{"path": "a.py", "line": 1}]`,
		"negative code":  `[{"path": "a.py", "line": 1, "code": -3}]`,
		"float line":     `[{"path": "a.py", "line": 1.5, "code": 1}]`,
		"trailing junk":  `[] []`,
		"bad second rec": `[{"path": "a.py", "line": 1, "code": 1}, {"path": "", "line": 2, "code": 1}]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(input), FeedJSON)
			require.Error(t, err)
			assert.Nil(t, got, "no partial batch on failure")
			var malformed *MalformedInputError
			assert.True(t, errors.As(err, &malformed), "want MalformedInputError, got %T", err)
		})
	}
}

func TestDecode_ReadFailure(t *testing.T) {
	readErr := errors.New("broken pipe")
	got, err := Decode(iotest.ErrReader(readErr), FeedJSON)
	assert.Nil(t, got)
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, -1, malformed.Index)
	assert.ErrorIs(t, err, readErr)
}

func TestDecode_MalformedReportsRecordIndex(t *testing.T) {
	_, err := DecodeBytes([]byte(`[{"path": "a.py", "line": 1, "code": 1}, {"path": "b.py", "code": 1}]`), FeedJSON)
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 1, malformed.Index)
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "missing line")
}

func TestDecode_Msgpack(t *testing.T) {
	type wire struct {
		Path        string `msgpack:"path"`
		Line        int    `msgpack:"line"`
		Column      int    `msgpack:"column,omitempty"`
		Code        int    `msgpack:"code"`
		Description string `msgpack:"description"`
	}
	data, err := msgpack.Marshal([]wire{
		{Path: "a.py", Line: 5, Column: 2, Code: 10, Description: "first"},
		{Path: "c.py", Line: 9, Code: 30, Description: "second"},
	})
	require.NoError(t, err)

	got, err := DecodeBytes(data, FeedMsgpack)
	require.NoError(t, err)
	assert.Equal(t, Batch{
		{Path: "a.py", Line: 5, Column: 2, Code: 10, Message: "first"},
		{Path: "c.py", Line: 9, Code: 30, Message: "second"},
	}, got)
}

func TestDecode_MsgpackGarbage(t *testing.T) {
	_, err := DecodeBytes([]byte{0xc1, 0xc1}, FeedMsgpack)
	var malformed *MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, FeedMsgpack, malformed.Format)
}

func TestParseFeedFormat(t *testing.T) {
	f, err := ParseFeedFormat("MSGPACK")
	require.NoError(t, err)
	assert.Equal(t, FeedMsgpack, f)

	f, err = ParseFeedFormat("")
	require.NoError(t, err)
	assert.Equal(t, FeedJSON, f)

	_, err = ParseFeedFormat("xml")
	assert.Error(t, err)
}
