package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	Configure(WithOutput(&buf), WithHandlerType(HandlerTypeJSON))
	t.Cleanup(func() { Configure() })

	ctx := PopulateContext(context.Background(), slog.String("query", "SELECT 1"))
	ctx = PopulateContextID(ctx, "query_id")
	New("test").InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "test", record["logger"])
	assert.Equal(t, "SELECT 1", record["query"])
	assert.Len(t, record["query_id"], 16)
}

func TestPopulateContextDoesNotShareParentSlice(t *testing.T) {
	parent := PopulateContext(context.Background(), slog.String("a", "1"))
	left := PopulateContext(parent, slog.String("b", "2"))
	right := PopulateContext(parent, slog.String("c", "3"))

	leftAttrs := left.Value(contextKey{}).([]slog.Attr)
	rightAttrs := right.Value(contextKey{}).([]slog.Attr)
	require.Len(t, leftAttrs, 2)
	require.Len(t, rightAttrs, 2)
	assert.Equal(t, "b", leftAttrs[1].Key)
	assert.Equal(t, "c", rightAttrs[1].Key)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(WithOutput(&buf), WithHandlerType(HandlerTypeBasic), WithLevel(slog.LevelWarn))
	t.Cleanup(func() { Configure() })

	log := New("test")
	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
