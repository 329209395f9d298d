package crm_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInterceptorRejected = errors.New("rejected")

func TestInterceptorChain_RequestInterceptors(t *testing.T) {
	t.Parallel()

	chain := crm.NewInterceptorChain()
	ctx := context.Background()

	var executionOrder []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *crm.Request) error {
		executionOrder = append(executionOrder, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *crm.Request) error {
		executionOrder = append(executionOrder, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(ctx, &crm.Request{Method: http.MethodGet, Path: "/prospects"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, executionOrder)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := crm.NewInterceptorChain()
	called := false

	chain.AddResponseInterceptor(func(ctx context.Context, req *crm.Request, resp *crm.Response) error {
		return errInterceptorRejected
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *crm.Request, resp *crm.Response) error {
		called = true

		return nil
	})

	err := chain.ExecuteResponseInterceptors(context.Background(), &crm.Request{}, &crm.Response{})
	require.ErrorIs(t, err, errInterceptorRejected)
	assert.Contains(t, err.Error(), "response interceptor failed")
	assert.False(t, called)
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := crm.RequestIDInterceptor()

	req := &crm.Request{}
	require.NoError(t, interceptor(context.Background(), req))

	_, err := uuid.Parse(req.Headers.Get(crm.RequestIDHeader))
	require.NoError(t, err)

	preset := &crm.Request{Headers: http.Header{crm.RequestIDHeader: []string{"fixed"}}}
	require.NoError(t, interceptor(context.Background(), preset))
	assert.Equal(t, "fixed", preset.Headers.Get(crm.RequestIDHeader))
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	collector := crm.NewMetricsCollector()
	ctx := context.Background()

	for _, status := range []int{http.StatusOK, http.StatusNotFound} {
		req := &crm.Request{Method: http.MethodGet, Path: "/prospects/p-1"}
		require.NoError(t, crm.MetricsRequestInterceptor(collector)(ctx, req))
		time.Sleep(time.Millisecond)
		require.NoError(t, crm.MetricsResponseInterceptor(collector)(ctx, req, &crm.Response{StatusCode: status}))
	}

	metrics := collector.GetMetrics("GET /prospects/p-1")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.Positive(t, metrics.AverageLatency)
	assert.Nil(t, collector.GetMetrics("GET /users"))

	snapshot := collector.Snapshot()
	assert.Len(t, snapshot, 1)
	assert.Equal(t, int64(2), snapshot["GET /prospects/p-1"].TotalRequests)
}
