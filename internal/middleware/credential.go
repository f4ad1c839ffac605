package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// APIKeyHeader carries the caller's language-model credential.
const APIKeyHeader = "X-API-Key"

const credentialKey = "credential"

// Credential extracts the caller's language-model key from the X-API-Key
// header, or from an Authorization bearer token, and stores it in the
// request locals. Requests without one continue with the server's key.
func Credential() fiber.Handler {
	return func(c fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(APIKeyHeader))

		if key == "" {
			authHeader := c.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				key = strings.TrimSpace(parts[1])
			}
		}

		if key != "" {
			c.Locals(credentialKey, key)
		}
		return c.Next()
	}
}

// GetCredential returns the key stored by Credential, or "".
func GetCredential(c fiber.Ctx) string {
	key, _ := c.Locals(credentialKey).(string)
	return key
}
