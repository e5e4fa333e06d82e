// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetAuthID gets the authenticated account id from the request context.
func GetAuthID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("authId")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustGetAuthID gets the account id or panics. Only valid behind Auth().
func MustGetAuthID(c *gin.Context) int64 {
	id, ok := GetAuthID(c)
	if !ok {
		panic("authId not found in context")
	}
	return id
}

// GetRole gets the authenticated account's role.
func GetRole(c *gin.Context) string {
	return c.GetString("role")
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == "admin"
}
