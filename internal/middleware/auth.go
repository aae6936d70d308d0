package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireUser resolves the caller identity. The gateway forwards the
// authenticated user in X-User-ID; a Bearer token signed with jwtSecret is
// accepted as a fallback for direct calls.
func RequireUser(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")

		if userID == "" && jwtSecret != "" {
			if token := bearerToken(c.GetHeader("Authorization")); token != "" {
				if claims, err := parseToken(token, jwtSecret); err == nil {
					userID = claims.UserID
					c.Set("role", claims.Role)
				}
			}
		}

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func parseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UserID reads the identity set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString("userID")
}
