package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"interview-scheduler/internal/scheduling"
)

const principalKey = "principal"

// Principal is the authenticated caller. Static service tokens act as admin
// in every tenant.
type Principal struct {
	Subject string
	Tenant  string
	Admin   bool
	Service bool
}

// Claims carried by user tokens.
type Claims struct {
	Tenant string `json:"tenant"`
	Admin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

// AuthMiddleware accepts HS256 JWTs signed with jwtSecret or one of the
// static tokens. JWT callers are confined to the tenant in their claims.
func AuthMiddleware(jwtSecret string, staticTokens []string) gin.HandlerFunc {
	static := make(map[string]struct{}, len(staticTokens))
	for _, t := range staticTokens {
		if t = strings.TrimSpace(t); t != "" {
			static[t] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		if _, ok := static[tokenStr]; ok {
			c.Set(principalKey, Principal{Subject: "service", Tenant: c.Param("tenant"), Admin: true, Service: true})
			c.Next()
			return
		}

		if jwtSecret != "" {
			var claims Claims
			_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil && claims.Subject != "" {
				if tenant := c.Param("tenant"); tenant != "" && tenant != claims.Tenant {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token not valid for tenant"})
					return
				}
				c.Set(principalKey, Principal{Subject: claims.Subject, Tenant: claims.Tenant, Admin: claims.Admin})
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

func principal(c *gin.Context) Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}
	}
	p, _ := v.(Principal)
	return p
}

func actor(c *gin.Context) scheduling.Actor {
	p := principal(c)
	return scheduling.Actor{UserID: p.Subject, Admin: p.Admin}
}

// requireAdmin aborts with 403 unless the caller is an admin.
func requireAdmin(c *gin.Context) bool {
	if !principal(c).Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
		return false
	}
	return true
}

// requireSelf aborts with 403 unless the caller manages userID.
func requireSelf(c *gin.Context, userID string) bool {
	if !actor(c).CanManage(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return false
	}
	return true
}
