package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTarget(t *testing.T) {
	got, err := resolveTarget("collector")
	require.NoError(t, err)
	require.Equal(t, target{endpoint: "collector:4318", insecure: true}, got)

	got, err = resolveTarget("https://otel.example/v1/traces/")
	require.NoError(t, err)
	require.Equal(t, target{endpoint: "otel.example:4318", path: "/v1/traces"}, got)

	got, err = resolveTarget("http://localhost:9999")
	require.NoError(t, err)
	require.Equal(t, "localhost:9999", got.endpoint)
	require.True(t, got.insecure)

	_, err = resolveTarget("grpc://collector:4317")
	require.Error(t, err)
	_, err = resolveTarget(" ")
	require.Error(t, err)
}

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), "", "docflow")
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSetupEnabled(t *testing.T) {
	p, err := Setup(context.Background(), "http://127.0.0.1:1", "docflow")
	require.NoError(t, err)
	require.True(t, p.Enabled())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Shutdown(ctx)
}

func TestWrap(t *testing.T) {
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusTeapot, w.Code)
}
