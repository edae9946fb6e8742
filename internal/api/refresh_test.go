package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureFreshToken_SingleFlight(t *testing.T) {
	store := &fakeStore{refresh: "ref-1"}

	var refreshCalls counter
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/auth/refresh", r.URL.Path)
		refreshCalls.inc()
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-1"})
	}))
	defer srv.Close()

	c := newClient(t, srv, store)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.EnsureFreshToken(context.Background())
		}(i)
	}

	// Let every caller join the flight before the server answers.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, refreshCalls.get())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "fresh-1", results[i])
	}
	require.Equal(t, "fresh-1", store.access)
}

func TestEnsureFreshToken_SharedRejection(t *testing.T) {
	store := &fakeStore{refresh: "ref-dead"}

	var refreshCalls counter
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.inc()
		<-release
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_refresh_token"})
	}))
	defer srv.Close()

	c := newClient(t, srv, store)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.EnsureFreshToken(context.Background())
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, refreshCalls.get())
	for i := 0; i < n; i++ {
		require.ErrorIs(t, errs[i], ErrRefreshRejected)
		require.True(t, IsFatalRefresh(errs[i]))
	}
}

func TestEnsureFreshToken_NextCallStartsNewFlight(t *testing.T) {
	store := &fakeStore{refresh: "ref-1"}

	var refreshCalls counter
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := refreshCalls.inc()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-2"})
	}))
	defer srv.Close()

	c := newClient(t, srv, store)

	_, err := c.EnsureFreshToken(context.Background())
	require.Error(t, err)
	require.False(t, IsFatalRefresh(err))

	// The failed flight is gone; a fresh call goes back to the network.
	tok, err := c.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-2", tok)
	require.Equal(t, 2, refreshCalls.get())
}

func TestEnsureFreshToken_NoRefreshTokenIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call expected without a refresh token")
	}))
	defer srv.Close()

	_, err := newClient(t, srv, &fakeStore{}).EnsureFreshToken(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
	require.True(t, IsFatalRefresh(err))
}

func TestEnsureFreshToken_TimeoutIsTransient(t *testing.T) {
	store := &fakeStore{refresh: "ref-1"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "late"})
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Store: store, RefreshTimeout: 50 * time.Millisecond})

	_, err := c.EnsureFreshToken(context.Background())
	require.Error(t, err)
	require.False(t, IsFatalRefresh(err))
}

func TestEnsureFreshToken_CallerCancellationDoesNotPoisonFlight(t *testing.T) {
	store := &fakeStore{refresh: "ref-1"}

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-1"})
	}))
	defer srv.Close()

	c := newClient(t, srv, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var got string
	var err error
	go func() {
		defer close(done)
		got, err = c.EnsureFreshToken(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel() // the flight runs on its own context and keeps going
	close(release)
	<-done

	require.NoError(t, err)
	require.Equal(t, "fresh-1", got)
}

func TestEnsureFreshToken_NotifiesTokenRefreshHook(t *testing.T) {
	store := &fakeStore{refresh: "ref-1"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh-1", "refresh_token": "ref-2"})
	}))
	defer srv.Close()

	c := newClient(t, srv, store)
	var notified string
	c.OnTokenRefresh(func(access string) { notified = access })

	_, err := c.EnsureFreshToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-1", notified)
	require.Equal(t, "ref-2", store.refresh)
}
