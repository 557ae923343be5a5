package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/domain/events"
	"opserp/internal/infrastructure/storage/postgres"
)

type publisherFunc func(ctx context.Context, ev events.StatusChanged) error

func (f publisherFunc) Publish(ctx context.Context, ev events.StatusChanged) error { return f(ctx, ev) }

type handlerFunc func(ctx context.Context, msg *postgres.OutboxMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg *postgres.OutboxMessage) error { return f(ctx, msg) }

func TestCountingPublisher(t *testing.T) {
	m := New()
	fail := false
	pub := m.CountTransitions(publisherFunc(func(context.Context, events.StatusChanged) error {
		if fail {
			return errors.New("outbox down")
		}
		return nil
	}))

	ev := events.StatusChanged{FromStatus: "SOLICITADO", ToStatus: "PENDENTE"}
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.NoError(t, pub.Publish(context.Background(), ev))

	fail = true
	require.Error(t, pub.Publish(context.Background(), ev))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("SOLICITADO", "PENDENTE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Transitions.WithLabelValues("SOLICITADO", "REPROVADO")))
}

func TestCountingHandler(t *testing.T) {
	m := New()
	calls := 0
	h := m.CountDeliveries(handlerFunc(func(context.Context, *postgres.OutboxMessage) error {
		calls++
		if calls == 2 {
			return errors.New("redis down")
		}
		return nil
	}))

	for i := 0; i < 3; i++ {
		_ = h.Handle(context.Background(), &postgres.OutboxMessage{})
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxDelivered))
}

type fakePool struct{ stats postgres.PoolStats }

func (p fakePool) Stats() postgres.PoolStats { return p.stats }

func TestRegisterPool(t *testing.T) {
	m := New()
	m.RegisterPool(fakePool{stats: postgres.PoolStats{TotalConns: 3, AcquiredConns: 1, IdleConns: 2, MaxConns: 25}})

	expected := `
# HELP opserp_db_pool_max_conns Pool size limit.
# TYPE opserp_db_pool_max_conns gauge
opserp_db_pool_max_conns 25
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "opserp_db_pool_max_conns"))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/requests/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/requests/a", "/requests/b", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/requests/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "opserp_http_requests_total")
}
