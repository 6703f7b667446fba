package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/jonandersen/apca/internal/config"
	"github.com/jonandersen/apca/pkg/alpaca"
)

// newTestOptions points both API hosts at a test server running handler.
func newTestOptions(t *testing.T, handler http.HandlerFunc) *apiOptions {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PKTEST", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "test-secret", r.Header.Get("APCA-API-SECRET-KEY"))
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.TradingBaseURL = server.URL
	cfg.DataBaseURL = server.URL
	return &apiOptions{
		client: alpaca.NewClient(server.URL, server.URL, alpaca.Credentials{KeyID: "PKTEST", SecretKey: "test-secret"}),
		cfg:    cfg,
	}
}

// routes serves fixed JSON bodies by URL path and fails the test on any
// other path.
func routes(t *testing.T, bodies map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}
}

// execute runs cmd with args and returns its standard output.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
