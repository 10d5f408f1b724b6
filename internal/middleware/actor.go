package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"bid-qualification-service/internal/roles"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims is the JWT payload issued by the identity gateway.
type ActorClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Actor resolves the calling user from a bearer token, or from the
// X-User-ID / X-User-Roles headers when no signing secret is configured
// (local development). It sets user_id and user_roles on the context; the
// services re-check roles against the user directory, so claims here are
// only a fast path.
func Actor(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rawID string
		var rawRoles []string

		auth := c.GetHeader("Authorization")
		if jwtSecret != "" && strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			claims := &ActorClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !parsed.Valid {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				c.Abort()
				return
			}
			rawID = claims.Subject
			rawRoles = claims.Roles
		} else {
			rawID = c.GetHeader("X-User-ID")
			if header := c.GetHeader("X-User-Roles"); header != "" {
				rawRoles = strings.Split(header, ",")
			}
		}

		if rawID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			c.Abort()
			return
		}
		userID, err := uuid.Parse(rawID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity must be a UUID"})
			c.Abort()
			return
		}

		set, err := roles.NewSet(rawRoles)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "unknown role in claims"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_roles", set)
		c.Next()
	}
}

// ActorID returns the authenticated caller's ID from the context.
func ActorID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
