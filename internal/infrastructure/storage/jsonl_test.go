package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	require.NoError(t, w.Write(map[string]any{"text": "<b>hi</b>"}))
	require.NoError(t, w.Write(map[string]any{"text": "bye"}))
	require.NoError(t, w.Close())

	sum := md5.Sum(buf.Bytes())
	assert.Equal(t, 2, w.Records())
	assert.Equal(t, int64(buf.Len()), w.Size())
	assert.Equal(t, hex.EncodeToString(sum[:]), w.Hash())

	var texts []string
	err := ReadJSONL(context.Background(), bytes.NewReader(buf.Bytes()), func(r map[string]any) error {
		texts = append(texts, r["text"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"<b>hi</b>", "bye"}, texts)
}

func TestReadJSONL_Errors(t *testing.T) {
	err := ReadJSONL(context.Background(), bytes.NewReader([]byte("not gzip")), func(map[string]any) error { return nil })
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf)
	require.NoError(t, w.Write(map[string]any{"a": 1}))
	require.NoError(t, w.Close())
	err = ReadJSONL(ctx, bytes.NewReader(buf.Bytes()), func(map[string]any) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
