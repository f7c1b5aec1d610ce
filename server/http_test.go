package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPServerServesUntilCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := NewHTTPServer(HTTPServerConfig{Address: "127.0.0.1:0", Handler: handler, ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestHTTPServerListenError(t *testing.T) {
	srv := NewHTTPServer(HTTPServerConfig{Address: "256.0.0.1:99999", Handler: http.NotFoundHandler()})
	require.Error(t, srv.Serve(context.Background()))
}

func TestNewHTTPServerRequiresAddress(t *testing.T) {
	require.Panics(t, func() { NewHTTPServer(HTTPServerConfig{Handler: http.NotFoundHandler()}) })
}
