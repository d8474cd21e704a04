package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/bikeshop-agent/internal/utils"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// RequireRole admits callers whose JWT role is one of roles. It must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[normRole(r)] = true
	}

	return func(c *gin.Context) {
		role := normRole(c.GetString("role"))
		if role == "" || !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "this action needs one of the roles: " + strings.Join(roles, ", "),
			})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireRole(RoleAdmin) }

func normRole(r string) string { return strings.ToLower(strings.TrimSpace(r)) }
