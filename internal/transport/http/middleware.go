package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/policy"
)

const actorContextKey = "actor"

// Auth проверяет bearer-токен и кладёт policy.Actor в контекст запроса.
// Маршруты с required=false пропускают анонимных акторов дальше: решение
// принимает policy на уровне операции.
type Auth struct {
	secret []byte
}

// NewAuth создаёт JWT-аутентификацию с симметричным секретом.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// Require возвращает middleware, требующий валидный токен.
func (a *Auth) Require() gin.HandlerFunc {
	return a.middleware(true)
}

// Optional возвращает middleware, пропускающий запросы без токена.
func (a *Auth) Optional() gin.HandlerFunc {
	return a.middleware(false)
}

func (a *Auth) middleware(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			if required {
				unauthorized(c, "missing bearer token")
				return
			}
			c.Next()
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		}, jwt.WithLeeway(30*time.Second)) // small clock skew
		if err != nil || !token.Valid {
			unauthorized(c, "invalid jwt")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "claims parsing error")
			return
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			unauthorized(c, "missing subject claim")
			return
		}
		role := domain.RoleUser
		if raw, _ := claims["role"].(string); raw != "" {
			parsed := domain.Role(strings.ToUpper(raw))
			if parsed.Valid() {
				role = parsed
			}
		}

		c.Set(actorContextKey, policy.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

// actorFrom достаёт актора из контекста; отсутствие означает анонима.
func actorFrom(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Actor{}
}

func unauthorized(c *gin.Context, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "error_description": desc})
}

// Logging пишет access-лог каждого запроса через logrus.
func Logging(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("request failed")
			return
		}
		entry.Debug("request handled")
	}
}
