package debug

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Record(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	rec, err := NewRecorder(RecorderConfig{LogsDir: dir, MaxRawSize: 5})
	require.NoError(t, err)

	path, err := rec.Record(Trace{
		Operation:    "generate",
		TemplateName: "Standard",
		Prompt:       "build {x}",
		RawResponse:  "0123456789",
		Status:       "malformed",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "generate_"))
	assert.Equal(t, 1, rec.Count())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Trace
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "01234... (truncated)", got.RawResponse)
	assert.True(t, got.RawTruncated)
	assert.Equal(t, "Standard", got.TemplateName)
	assert.False(t, got.Timestamp.IsZero())
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder

	path, err := rec.Record(Trace{Operation: "edit"})
	assert.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, rec.Count())
}
