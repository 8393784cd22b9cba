package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, GetCorrelationID(c), CorrelationIDFromContext(c.UserContext()))
		return c.SendString(GetCorrelationID(c))
	})

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{name: "reuses header", headers: map[string]string{HeaderCorrelationID: "abc-123"}, expected: "abc-123"},
		{name: "falls back to request id", headers: map[string]string{"X-Request-ID": "req-9"}, expected: "req-9"},
		{name: "rejects whitespace", headers: map[string]string{HeaderCorrelationID: "bad id"}},
		{name: "rejects oversized", headers: map[string]string{HeaderCorrelationID: strings.Repeat("a", 200)}},
		{name: "generates"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			id := resp.Header.Get(HeaderCorrelationID)
			if tc.expected != "" {
				require.Equal(t, tc.expected, id)
				return
			}
			_, err = uuid.Parse(id)
			require.NoError(t, err)
		})
	}
}
