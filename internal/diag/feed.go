package diag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// FeedFormat selects the serialization of a diagnostic feed.
type FeedFormat uint8

const (
	FeedJSON FeedFormat = iota
	FeedMsgpack
)

func (f FeedFormat) String() string {
	switch f {
	case FeedJSON:
		return "json"
	case FeedMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFeedFormat converts a flag value to a FeedFormat.
func ParseFeedFormat(s string) (FeedFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FeedJSON, nil
	case "msgpack":
		return FeedMsgpack, nil
	default:
		return FeedJSON, fmt.Errorf("invalid feed format %q (expected json|msgpack)", s)
	}
}

// record is the wire shape of one diagnostic. Pointer fields distinguish
// "missing" from zero.
type record struct {
	Path        string `json:"path" msgpack:"path"`
	File        string `json:"file" msgpack:"file,omitempty"`
	Line        *int64 `json:"line" msgpack:"line"`
	Column      *int64 `json:"column" msgpack:"column,omitempty"`
	Code        *int64 `json:"code" msgpack:"code"`
	Description string `json:"description" msgpack:"description"`
	Message     string `json:"message" msgpack:"message,omitempty"`
}

// Decode reads a whole feed from r. Any schema violation rejects the feed;
// no partial batch is returned.
func Decode(r io.Reader, format FeedFormat) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedInputError{Format: format, Index: -1, Reason: "read failed", Err: err}
	}
	return DecodeBytes(data, format)
}

// DecodeBytes decodes a feed already held in memory.
func DecodeBytes(data []byte, format FeedFormat) (Batch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &MalformedInputError{Format: format, Index: -1, Reason: "empty input"}
	}

	var records []record
	switch format {
	case FeedJSON:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, &MalformedInputError{Format: format, Index: -1, Err: err}
		}
	case FeedMsgpack:
		if err := msgpack.Unmarshal(data, &records); err != nil {
			return nil, &MalformedInputError{Format: format, Index: -1, Err: err}
		}
	default:
		return nil, fmt.Errorf("unsupported feed format %v", format)
	}
	if records == nil {
		// JSON null
		return nil, &MalformedInputError{Format: format, Index: -1, Reason: "expected a list of diagnostics"}
	}

	batch := make(Batch, 0, len(records))
	for i := range records {
		d, err := records[i].diagnostic()
		if err != nil {
			return nil, &MalformedInputError{Format: format, Index: i, Err: err}
		}
		batch = append(batch, d)
	}
	return batch, nil
}

func (r *record) diagnostic() (Diagnostic, error) {
	path := r.Path
	if path == "" {
		path = r.File
	}
	if strings.TrimSpace(path) == "" {
		return Diagnostic{}, fmt.Errorf("missing path")
	}
	if r.Line == nil {
		return Diagnostic{}, fmt.Errorf("missing line")
	}
	if r.Code == nil {
		return Diagnostic{}, fmt.Errorf("missing code")
	}

	line, err := safecast.Conv[int](*r.Line)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("line: %w", err)
	}
	if line < 1 {
		return Diagnostic{}, fmt.Errorf("line %d out of range", line)
	}
	code, err := safecast.Conv[int](*r.Code)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("code: %w", err)
	}
	if code < 0 {
		return Diagnostic{}, fmt.Errorf("negative code %d", code)
	}
	column := 0
	if r.Column != nil {
		column, err = safecast.Conv[int](*r.Column)
		if err != nil {
			return Diagnostic{}, fmt.Errorf("column: %w", err)
		}
		if column < 0 {
			return Diagnostic{}, fmt.Errorf("column %d out of range", column)
		}
	}

	msg := r.Description
	if msg == "" {
		msg = r.Message
	}
	return Diagnostic{
		Path:    path,
		Line:    line,
		Column:  column,
		Code:    Code(code),
		Message: msg,
	}, nil
}
