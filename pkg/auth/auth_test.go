package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

func TestSlot_Empty(t *testing.T) {
	slot := NewSlot(nil)
	req := newTestRequest(t)

	got, err := slot.Decorate(context.Background(), req, "/", nil, nil)
	require.NoError(t, err)
	assert.Same(t, req, got)
	assert.Empty(t, got.Header.Get("Authorization"))
	assert.Nil(t, slot.Strategy())
}

func TestSlot_SetReplacesStrategy(t *testing.T) {
	slot := NewSlot(NewBearerStrategy("first"))

	req, err := slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", req.Header.Get("Authorization"))

	second := NewBearerStrategy("second")
	slot.Set(second)
	assert.Same(t, second, slot.Strategy())

	req, err = slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", req.Header.Get("Authorization"))
}

func TestSlot_WrapsErrors(t *testing.T) {
	cause := errors.New("boom")
	slot := NewSlot(StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		return nil, cause
	}))

	_, err := slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	require.Error(t, err)

	var strategyErr *StrategyError
	require.True(t, errors.As(err, &strategyErr))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "could not set auth info for request")
}

func TestSlot_DoesNotDoubleWrap(t *testing.T) {
	inner := &StrategyError{Err: errors.New("token endpoint down")}
	slot := NewSlot(StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		return nil, inner
	}))

	_, err := slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	assert.Same(t, inner, err)
}

func TestSlot_NilRequestIsError(t *testing.T) {
	slot := NewSlot(StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		return nil, nil
	}))

	_, err := slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	var strategyErr *StrategyError
	assert.True(t, errors.As(err, &strategyErr))
}

func TestSlot_SerializesDecorate(t *testing.T) {
	var active, maxActive int32

	slot := NewSlot(StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return req, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
			_, _ = slot.Decorate(context.Background(), req, "/", nil, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestSlot_ReleasesLockOnError(t *testing.T) {
	calls := 0
	slot := NewSlot(StrategyFunc(func(ctx context.Context, req *http.Request, path string, opts *httpclient.RequestOptions, client httpclient.Executor) (*http.Request, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("first call fails")
		}
		return req, nil
	}))

	_, err := slot.Decorate(context.Background(), newTestRequest(t), "/", nil, nil)
	require.Error(t, err)

	retry := newTestRequest(t)
	done := make(chan struct{})
	go func() {
		_, _ = slot.Decorate(context.Background(), retry, "/", nil, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot remained locked after a failed Decorate")
	}
	assert.Equal(t, 2, calls)
}

func TestNewStrategyError(t *testing.T) {
	assert.Nil(t, NewStrategyError(nil))

	cause := errors.New("cause")
	err := NewStrategyError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, NewStrategyError(err))
}
