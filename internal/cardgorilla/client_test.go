package cardgorilla

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(
		WithBaseURL(url),
		WithRetry(3, time.Millisecond),
	)
}

func TestRanking(t *testing.T) {
	t.Run("returns the ranked records", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			assert.Equal(t, "/charts/ranking", r.URL.Path)
			w.Write([]byte(`[{"card_idx":1,"name":"Card A"},{"card_idx":2,"name":"Card B"}]`))
		}))
		defer srv.Close()

		items, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Card A", items[0]["name"])
		assert.Contains(t, gotQuery, "term=weekly")
		assert.Contains(t, gotQuery, "limit=100")
		assert.Contains(t, gotQuery, "chart=top100")
	})

	t.Run("non-sequence payload is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"items":[]}`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.Error(t, err)

		var malformed *MalformedResponseError
		assert.ErrorAs(t, err, &malformed)
	})
}

func TestRetry(t *testing.T) {
	t.Run("recovers after server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`[{"card_idx":1,"name":"Card A"}]`))
		}))
		defer srv.Close()

		items, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("exhaustion yields TransientError", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.Error(t, err)

		var transient *TransientError
		require.ErrorAs(t, err, &transient)
		assert.Equal(t, 3, transient.Attempts)
		assert.EqualValues(t, 3, calls.Load(), "retries stop at the attempt ceiling")

		var serverErr *ServerError
		require.ErrorAs(t, err, &serverErr)
		assert.Equal(t, http.StatusServiceUnavailable, serverErr.StatusCode)
	})

	t.Run("429 is retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		items, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).CardDetail(context.Background(), 999)
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())

		var transient *TransientError
		assert.False(t, errors.As(err, &transient))
	})

	t.Run("malformed payloads are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).Ranking(context.Background(), RankingOptions{})
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("context cancellation stops the backoff wait", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewClient(WithBaseURL(srv.URL), WithRetry(3, time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Ranking(ctx, RankingOptions{})
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestCardDetail(t *testing.T) {
	t.Run("returns the object", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cards/2450", r.URL.Path)
			w.Write([]byte(`{"card_idx":2450,"name":"Detail Card"}`))
		}))
		defer srv.Close()

		record, err := newTestClient(srv.URL).CardDetail(context.Background(), 2450)
		require.NoError(t, err)
		assert.Equal(t, "Detail Card", record["name"])
	})

	t.Run("sequence payload is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).CardDetail(context.Background(), 1)
		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "object", malformed.Expected)
	})
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/search", r.URL.Path)
		assert.Equal(t, "shopping", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"card_idx":5,"name":"Shopping Card"}]`))
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL).Search(context.Background(), "shopping", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRetryDelay(t *testing.T) {
	client := NewClient(WithRetry(5, 100*time.Millisecond))

	assert.Equal(t, 100*time.Millisecond, client.retryDelay(1))
	assert.Equal(t, 300*time.Millisecond, client.retryDelay(3))
}
