package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "opserp/internal/core/context"
)

func TestFromContext_EnrichesWithTraceAndActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t1", RequestID: "r1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{ActorID: "a1"})

	Info(ctx, "request approved", "request_id_ref", "p1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t1", fields["trace_id"])
		assert.Equal(t, "r1", fields["request_id"])
		assert.Equal(t, "a1", fields["actor_id"])
		assert.Equal(t, "p1", fields["request_id_ref"])
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "chatty", OutputPaths: []string{"stderr"}})
	assert.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}
