package middleware

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wb-go/wbf/ginext"

	"felicity/internal/dto"
	"felicity/internal/model"
)

const principalKey = "principal"

// Principal identifies the authenticated caller for downstream handlers.
type Principal struct {
	ID   string
	Role model.Role
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// NewToken mints a signed session token for the given account.
func NewToken(secret, id string, role model.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	})
	return token.SignedString([]byte(secret))
}

// Authenticate parses the Bearer token and stores the Principal on the
// request context. Requests without a valid token are rejected.
func Authenticate(secret string) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			dto.UnauthorizedError(c, "Missing bearer token")
			c.Abort()
			return
		}

		var parsed claims
		_, err := jwt.ParseWithClaims(raw, &parsed, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or expired token")
			c.Abort()
			return
		}

		role, err := model.ParseRole(parsed.Role)
		if err != nil {
			dto.UnauthorizedError(c, "Invalid token role")
			c.Abort()
			return
		}

		c.Set(principalKey, Principal{ID: parsed.Subject, Role: role})
		c.Next()
	}
}

// RequireRole guards a route group so that only the listed roles pass.
func RequireRole(roles ...model.Role) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			dto.UnauthorizedError(c, "Not authenticated")
			c.Abort()
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		dto.ForbiddenError(c, dto.Forbidden, "Insufficient permissions")
		c.Abort()
	}
}

func PrincipalFrom(c *ginext.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
