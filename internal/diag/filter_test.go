package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() Batch {
	return Batch{
		{Path: "a.py", Line: 5, Code: 10, Message: "first"},
		{Path: "a.py", Line: 5, Code: 20, Message: "second"},
		{Path: "b.py", Line: 1, Code: 10, Message: "third"},
		{Path: "c.py", Line: 9, Column: 4, Code: 30, Message: "fourth"},
		{Path: "a.py", Line: 7, Code: 10, Message: "fifth"},
	}
}

func TestFilter_NoFilterIsIdentity(t *testing.T) {
	b := sampleBatch()
	got := Filter(b, NoFilter())
	require.Len(t, got, len(b))
	assert.Same(t, &b[0], &got[0], "unset filter must return the input slice")
}

func TestFilter_KeepsMatchingInOrder(t *testing.T) {
	b := sampleBatch()
	got := Filter(b, Only(10))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"first", "third", "fifth"}, []string{got[0].Message, got[1].Message, got[2].Message})
	for _, d := range got {
		assert.Equal(t, Code(10), d.Code)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	b := sampleBatch()
	before := append(Batch(nil), b...)
	_ = Filter(b, Only(20))
	assert.Equal(t, before, b)
}

func TestFilter_Idempotent(t *testing.T) {
	b := sampleBatch()
	for _, c := range []Code{10, 20, 30, 99} {
		once := Filter(b, Only(c))
		twice := Filter(once, Only(c))
		assert.Equal(t, once, twice, "code %d", c)
	}
}

func TestFilter_NoMatchYieldsEmptyBatch(t *testing.T) {
	got := Filter(sampleBatch(), Only(99))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCodeFilter_Match(t *testing.T) {
	d := Diagnostic{Path: "a.py", Line: 1, Code: 7}
	assert.True(t, NoFilter().Match(d))
	assert.True(t, Only(7).Match(d))
	assert.False(t, Only(8).Match(d))
}

func TestFilter_ZeroCodeIsARealCode(t *testing.T) {
	b := Batch{{Path: "x.py", Line: 1, Code: 0}, {Path: "x.py", Line: 2, Code: 1}}
	got := Filter(b, Only(0))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Line)
}

func TestFilter_Scenario(t *testing.T) {
	b := Batch{
		{Path: "a.py", Line: 5, Code: 10},
		{Path: "a.py", Line: 5, Code: 20},
	}
	got := Filter(b, Only(10))
	assert.Equal(t, Batch{{Path: "a.py", Line: 5, Code: 10}}, got)
}

func TestParseCodeFilter(t *testing.T) {
	tests := []struct {
		in      string
		wantSet bool
		want    Code
		wantErr bool
	}{
		{in: "", wantSet: false},
		{in: "  ", wantSet: false},
		{in: "10", wantSet: true, want: 10},
		{in: "0", wantSet: true, want: 0},
		{in: "-1", wantErr: true},
		{in: "ten", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseCodeFilter(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			code, set := f.Code()
			assert.Equal(t, tt.wantSet, set)
			if tt.wantSet {
				assert.Equal(t, tt.want, code)
			}
		})
	}
}
