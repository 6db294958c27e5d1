package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseReturnsDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		require.Equal(t, "14", r.URL.Query().Get("zoom"))
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"display_name": "Istra, Moscow Oblast, Russia"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "landscore-test/1.0")
	addr := client.Reverse(context.Background(), 55.9, 36.86)
	assert.Equal(t, "Istra, Moscow Oblast, Russia", addr)
}

func TestReverseZoomOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "10", r.URL.Query().Get("zoom"))
		fmt.Fprint(w, `{"display_name": "Moscow Oblast"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "landscore-test/1.0", WithZoom(10))
	assert.Equal(t, "Moscow Oblast", client.Reverse(context.Background(), 55.9, 36.86))
}

func TestReverseFallsBackToCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "landscore-test/1.0")
	addr := client.Reverse(context.Background(), 55.9, 36.86)
	assert.Equal(t, "55.90000, 36.86000", addr)
}

func TestReverseNominatimErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error": "Unable to geocode"}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "landscore-test/1.0")
	addr := client.Reverse(context.Background(), 0, 0)
	assert.Equal(t, "0.00000, 0.00000", addr)
}

type memStore struct {
	data map[string][]byte
	sets int
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, ns, key string, dst any) (bool, error) {
	raw, ok := m.data[ns+"/"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memStore) Set(_ context.Context, ns, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[ns+"/"+key] = raw
	m.sets++
	return nil
}

func TestReverseCacheThrough(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"display_name": "Cached place"}`)
	}))
	defer srv.Close()

	store := newMemStore()
	client := NewClient(srv.URL, "landscore-test/1.0", WithStore(store))

	first := client.Reverse(context.Background(), 55.9, 36.86)
	second := client.Reverse(context.Background(), 55.9, 36.86)

	assert.Equal(t, "Cached place", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, store.sets)
}

func TestReverseFailureNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := newMemStore()
	client := NewClient(srv.URL, "landscore-test/1.0", WithStore(store))
	client.Reverse(context.Background(), 55.9, 36.86)
	assert.Equal(t, 0, store.sets)
}
