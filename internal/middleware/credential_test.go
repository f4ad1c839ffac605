package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func credentialApp() *fiber.App {
	app := fiber.New()
	app.Use(Credential())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(GetCredential(c))
	})
	return app
}

func credentialFor(t *testing.T, headers map[string]string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := credentialApp().Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCredential(t *testing.T) {
	assert.Equal(t, "key-1", credentialFor(t, map[string]string{APIKeyHeader: " key-1 "}))
	assert.Equal(t, "key-2", credentialFor(t, map[string]string{"Authorization": "Bearer key-2"}))
	assert.Equal(t, "key-1", credentialFor(t, map[string]string{APIKeyHeader: "key-1", "Authorization": "Bearer key-2"}))
	assert.Equal(t, "", credentialFor(t, map[string]string{"Authorization": "Basic abc"}))
	assert.Equal(t, "", credentialFor(t, nil))
}
