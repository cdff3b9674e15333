package http

import (
	"strings"
	"time"

	"github.com/MMN3003/payagent/src/apperror"
	"github.com/MMN3003/payagent/src/logger"
	"github.com/MMN3003/payagent/src/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const merchantKey = "merchant"

// JWTAuth guards merchant routes with an HS256 bearer token. An empty secret
// disables the check.
func JWTAuth(secret string, logg *logger.Logger) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(30*time.Second))
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Fail(c, apperror.ErrUnauthorized.WithMessage("authorization header required"))
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			logg.Debugf("rejected bearer token: %v", err)
			response.Fail(c, apperror.ErrUnauthorized.WithMessage("invalid token"))
			return
		}
		if strings.TrimSpace(claims.Subject) == "" {
			response.Fail(c, apperror.ErrUnauthorized.WithMessage("token has no subject"))
			return
		}

		c.Set(merchantKey, claims.Subject)
		c.Next()
	}
}
