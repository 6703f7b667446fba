package cmd

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsCmd_Success(t *testing.T) {
	var tokens []string
	opts := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/stocks/bars", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "AAPL", q.Get("symbols"))
		assert.Equal(t, "1Day", q.Get("timeframe"))
		assert.Equal(t, "2024-03-01", q.Get("start"))
		assert.Equal(t, "2024-03-05", q.Get("end"))

		tokens = append(tokens, q.Get("page_token"))
		if q.Get("page_token") == "" {
			_, _ = w.Write([]byte(`{"bars": {"AAPL": [
				{"t": "2024-03-01T05:00:00Z", "o": 179.55, "h": 180.53, "l": 177.38, "c": 179.66, "v": 73488997, "n": 911165, "vw": 179.08}
			]}, "next_page_token": "QUFQTHxE"}`))
			return
		}
		_, _ = w.Write([]byte(`{"bars": {"AAPL": [
			{"t": "2024-03-04T05:00:00Z", "o": 176.15, "h": 176.9, "l": 173.79, "c": 175.1, "v": 81510101, "n": 1032102, "vw": 175.25}
		]}, "next_page_token": null}`))
	})

	out, err := execute(newBarsCmd(opts), "aapl", "--start", "2024-03-01", "--end", "2024-03-05")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "QUFQTHxE"}, tokens)
	assert.Contains(t, out, "179.66")
	assert.Contains(t, out, "175.10")
	assert.Contains(t, out, "73,488,997")
	assert.Less(t, strings.Index(out, "2024-03-01"), strings.Index(out, "2024-03-04"))
}

func TestBarsCmd_NoBars(t *testing.T) {
	opts := newTestOptions(t, routes(t, map[string]string{"/v2/stocks/bars": `{"bars": {}}`}))

	out, err := execute(newBarsCmd(opts), "AAPL", "--start", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No bars found")
}

func TestBarsCmd_InvalidRange(t *testing.T) {
	opts := newTestOptions(t, routes(t, nil))

	_, err := execute(newBarsCmd(opts), "AAPL", "--start", "2024-03-05", "--end", "2024-03-01")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is before")
}
