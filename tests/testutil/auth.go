package testutil

import (
	"net/http"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/middleware"
	"github.com/kendall-kelly/fieldservice-api/models"
)

// Token returns the bearer token BearerAuth maps to user
func Token(user models.User) string {
	return user.Auth0ID
}

// MockValidatedClaims creates the claims EnsureValidToken would store for subject
func MockValidatedClaims(subject, role string, scopes ...string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "https://test.auth0.com/",
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  role,
		},
	}
}

// BearerAuth stands in for EnsureValidToken. The bearer token is taken
// verbatim as the subject, so "Authorization: Bearer auth0|anna" acts as
// the user with Auth0 ID "auth0|anna". Every token carries scopes.
func BearerAuth(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or missing token",
				},
			})
			return
		}

		c.Set("user_id", subject)
		c.Set("access_token", subject)
		c.Set("validated_claims", MockValidatedClaims(subject, "", scopes...))
		c.Next()
	}
}
