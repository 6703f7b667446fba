package cmd

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsChainCmd_FollowsPagesAndSorts(t *testing.T) {
	var tokens []string
	opts := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta1/options/snapshots/AAPL", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2025-06-01", q.Get("expiration_date_gte"))
		assert.Equal(t, "2025-06-30", q.Get("expiration_date_lte"))
		assert.Equal(t, "call", q.Get("type"))
		assert.Equal(t, "1000", q.Get("limit"))

		tokens = append(tokens, q.Get("page_token"))
		switch q.Get("page_token") {
		case "":
			_, _ = w.Write([]byte(`{"snapshots": {
				"AAPL250620C00155000": {},
				"AAPL250620C00150000": {}
			}, "next_page_token": "p2"}`))
		case "p2":
			_, _ = w.Write([]byte(`{"snapshots": {"AAPL250613C00160000": {}}, "next_page_token": null}`))
		}
	})

	out, err := execute(newOptionsChainCmd(opts), "aapl", "--from", "2025-06-01", "--to", "2025-06-30", "--type", "c")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "p2"}, tokens)
	i13 := strings.Index(out, "AAPL250613C00160000")
	i150 := strings.Index(out, "AAPL250620C00150000")
	i155 := strings.Index(out, "AAPL250620C00155000")
	require.True(t, i13 >= 0 && i150 >= 0 && i155 >= 0, out)
	assert.Less(t, i13, i150)
	assert.Less(t, i150, i155)
	assert.Contains(t, out, "150.00")
}

func TestOptionsChainCmd_StrikeBounds(t *testing.T) {
	opts := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "500.00", q.Get("strike_price_gte"))
		assert.Equal(t, "520.50", q.Get("strike_price_lte"))
		_, _ = w.Write([]byte(`{"snapshots": {}}`))
	})

	out, err := execute(newOptionsChainCmd(opts), "SPY", "--min-strike", "500", "--max-strike", "520.5")
	require.NoError(t, err)
	assert.Contains(t, out, "No contracts found")
}

func TestOptionsChainCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad date", []string{"AAPL", "--from", "06/01/2025"}, "invalid from"},
		{"reversed range", []string{"AAPL", "--from", "2025-07-01", "--to", "2025-06-01"}, "is before"},
		{"bad type", []string{"AAPL", "--type", "straddle"}, "invalid option type"},
		{"negative strike", []string{"AAPL", "--min-strike", "-5"}, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newTestOptions(t, routes(t, nil))
			_, err := execute(newOptionsChainCmd(opts), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptionsChainCmd_PageLimit(t *testing.T) {
	opts := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"snapshots": {"AAPL250620C00150000": {}}, "next_page_token": "again"}`))
	})
	opts.cfg.MaxPages = 3

	_, err := execute(newOptionsChainCmd(opts), "AAPL")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 pages")
}

func TestOptionsDecodeCmd(t *testing.T) {
	out, err := execute(newOptionsDecodeCmd(&apiOptions{}), "AAPL250620P00150500", "spy")
	require.NoError(t, err)

	assert.Contains(t, out, "AAPL250620P00150500")
	assert.Contains(t, out, "2025-06-20")
	assert.Contains(t, out, "PUT")
	assert.Contains(t, out, "150.50")
	assert.Contains(t, out, "SPY")
}

func TestOptionsDecodeCmd_Invalid(t *testing.T) {
	_, err := execute(newOptionsDecodeCmd(&apiOptions{}), "AAPL2506X00150000")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symbol")
}

func TestOptionsEncodeCmd(t *testing.T) {
	out, err := execute(newOptionsEncodeCmd(), "aapl", "2025-06-20", "call", "150")
	require.NoError(t, err)
	assert.Equal(t, "AAPL250620C00150000\n", out)
}

func TestOptionsEncodeCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad date", []string{"AAPL", "20250620", "C", "150"}, "invalid expiration"},
		{"bad type", []string{"AAPL", "2025-06-20", "X", "150"}, "invalid option type"},
		{"bad strike", []string{"AAPL", "2025-06-20", "C", "abc"}, "invalid strike"},
		{"too precise", []string{"AAPL", "2025-06-20", "C", "150.1234"}, "decimal places"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(newOptionsEncodeCmd(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptionsStrategiesCmd(t *testing.T) {
	out, err := execute(newOptionsStrategiesCmd(&apiOptions{}))
	require.NoError(t, err)

	assert.Contains(t, out, "iron-condor")
	assert.Contains(t, out, "long-put,short-put,short-call,long-call")
	assert.Contains(t, out, "LONG 100x STOCK")
}
