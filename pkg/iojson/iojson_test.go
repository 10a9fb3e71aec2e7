package iojson

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteLine(&buf, map[string]string{"event": "created"}))
	require.NoError(t, WriteLine(&buf, map[string]string{"event": "removed"}))

	assert.Equal(t, "{\"event\":\"created\"}\n{\"event\":\"removed\"}\n", buf.String())
}

func TestWriteLine_unsupported_value(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLine(&buf, make(chan int))
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestWriteIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIndent(&buf, map[string]bool{"valid": true}))
	assert.Equal(t, "{\n  \"valid\": true\n}\n", buf.String())
}
