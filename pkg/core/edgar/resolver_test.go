package edgar

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"edgar_export/pkg/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		ticker string
		status int
		body   string
		want   models.CIK
	}{
		{
			name:   "pads first hit",
			ticker: "aapl",
			body:   `{"hits":{"hits":[{"_id":"320193"},{"_id":"999"}]}}`,
			want:   "0000320193",
		},
		{
			name:   "already ten digits",
			ticker: "F",
			body:   `{"hits":{"hits":[{"_id":"0000037996"}]}}`,
			want:   "0000037996",
		},
		{
			name:   "empty hit list",
			ticker: "ZZZZ",
			body:   `{"hits":{"hits":[]}}`,
			want:   "",
		},
		{
			name:   "missing hits",
			ticker: "ZZZZ",
			body:   `{}`,
			want:   "",
		},
		{
			name:   "empty id",
			ticker: "ZZZZ",
			body:   `{"hits":{"hits":[{"_id":""}]}}`,
			want:   "",
		},
		{
			name:   "malformed json",
			ticker: "ZZZZ",
			body:   `{"hits":`,
			want:   "",
		},
		{
			name:   "server error",
			ticker: "ZZZZ",
			status: http.StatusInternalServerError,
			body:   `oops`,
			want:   "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := newRegistryStub(t)
			status := tc.status
			if status == 0 {
				status = http.StatusOK
			}
			stub.handleStatus("/search?keysTyped="+strings.ToUpper(tc.ticker), status, tc.body)

			r := NewResolver(stub.gateway(), stub.url("/search"), nil)
			assert.Equal(t, tc.want, r.Resolve(context.Background(), tc.ticker))
			assert.Equal(t, 1, stub.total())
		})
	}
}

func TestResolveEmptyTickerMakesNoCall(t *testing.T) {
	stub := newRegistryStub(t)
	r := NewResolver(stub.gateway(), stub.url("/search"), nil)

	assert.Equal(t, models.CIK(""), r.Resolve(context.Background(), "  "))
	assert.Equal(t, 0, stub.total())
}
