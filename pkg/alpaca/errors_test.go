package alpaca

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 403, Message: "insufficient buying power"},
			expected: "API error (403): insufficient buying power",
		},
		{
			name:     "status text fallback",
			err:      &APIError{StatusCode: 422},
			expected: "API error (422): Unprocessable Entity",
		},
		{
			name:     "with path",
			err:      &APIError{StatusCode: 404, Path: "/v2/positions/XYZ"},
			expected: "API error (404) on /v2/positions/XYZ: Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAPIError_StatusChecks(t *testing.T) {
	checks := map[string]func(*APIError) bool{
		"not found":     (*APIError).IsNotFound,
		"unauthorized":  (*APIError).IsUnauthorized,
		"forbidden":     (*APIError).IsForbidden,
		"unprocessable": (*APIError).IsUnprocessable,
		"rate limited":  (*APIError).IsRateLimited,
	}
	statuses := map[int]string{
		404: "not found",
		401: "unauthorized",
		403: "forbidden",
		422: "unprocessable",
		429: "rate limited",
		500: "",
	}

	for status, want := range statuses {
		err := &APIError{StatusCode: status}
		for name, check := range checks {
			assert.Equal(t, name == want, check(err), "%s check for %d", name, status)
		}
	}
}

func TestCheckResponse_Success(t *testing.T) {
	for _, code := range []int{200, 201, 204, 299} {
		resp := &http.Response{StatusCode: code}
		assert.NoError(t, CheckResponse(resp), "status %d should not error", code)
	}
}

func TestCheckResponse_Error(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		body         string
		expectedMsg  string
		expectedCode string
	}{
		{
			name:         "numeric code",
			statusCode:   403,
			body:         `{"code":40310000,"message":"insufficient buying power"}`,
			expectedMsg:  "insufficient buying power",
			expectedCode: "40310000",
		},
		{
			name:         "string code",
			statusCode:   422,
			body:         `{"code":"invalid_order","message":"legs must be options"}`,
			expectedMsg:  "legs must be options",
			expectedCode: "invalid_order",
		},
		{
			name:        "error field",
			statusCode:  400,
			body:        `{"error":"bad request"}`,
			expectedMsg: "bad request",
		},
		{
			name:        "empty body",
			statusCode:  500,
			body:        "",
			expectedMsg: "",
		},
		{
			name:        "plain text body",
			statusCode:  401,
			body:        "forbidden.\n",
			expectedMsg: "forbidden.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.statusCode,
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}

			err := CheckResponse(resp)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.statusCode, apiErr.StatusCode)
			assert.Equal(t, tt.expectedMsg, apiErr.Message)
			assert.Equal(t, tt.expectedCode, apiErr.Code)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		resp := &http.Response{
			Body: io.NopCloser(strings.NewReader(`{"id":"abc","buying_power":"1000"}`)),
		}

		var data map[string]any
		err := DecodeJSON(resp, &data)
		require.NoError(t, err)
		assert.Equal(t, "abc", data["id"])
	})

	t.Run("invalid json", func(t *testing.T) {
		resp := &http.Response{
			Body: io.NopCloser(strings.NewReader(`not json`)),
		}

		var data map[string]any
		err := DecodeJSON(resp, &data)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})
}
