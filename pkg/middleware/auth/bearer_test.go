package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, token string) (bool, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (bool, error) { return f(ctx, token) }

func TestBearer_RequireToken(t *testing.T) {
	v := verifierFunc(func(_ context.Context, token string) (bool, error) {
		switch token {
		case "good":
			return true, nil
		case "boom":
			return false, errors.New("dial tcp: refused")
		default:
			return false, nil
		}
	})
	mw := NewBearer(v)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing", header: "", code: http.StatusForbidden},
		{name: "wrong scheme", header: "Basic abc", code: http.StatusForbidden},
		{name: "empty token", header: "Bearer ", code: http.StatusForbidden},
		{name: "rejected", header: "Bearer revoked", code: http.StatusForbidden},
		{name: "verifier down", header: "Bearer boom", code: http.StatusServiceUnavailable},
		{name: "ok", header: "Bearer good", code: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := mw.RequireToken(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.code == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok, "expected HTTPError")
			assert.Equal(t, tt.code, he.Code)
		})
	}
}
