package httpapi

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/serverless/shutdownd/shutdown"
)

// PrivilegedRoles grant access to shutdown state.
var PrivilegedRoles = []string{"pg_read_all_stats", "superuser"}

// Claims are the JWT claims of an admin API caller.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Authenticator resolves the caller of a request from its bearer token. With no secret every
// caller is privileged.
type Authenticator struct {
	Secret []byte
}

// Caller returns the identity behind r. A request without a token is an unprivileged caller.
func (a *Authenticator) Caller(r *http.Request) (shutdown.Caller, error) {
	if a == nil || len(a.Secret) == 0 {
		return shutdown.Caller{Name: "anonymous", Privileged: true}, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return shutdown.Caller{Name: "anonymous"}, nil
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return shutdown.Caller{}, &ErrUnauthorized{Reason: "expected bearer token"}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return shutdown.Caller{}, &ErrUnauthorized{Reason: err.Error()}
	}

	return shutdown.Caller{Name: claims.Subject, Privileged: privileged(claims.Roles)}, nil
}

func privileged(roles []string) bool {
	for _, role := range roles {
		for _, p := range PrivilegedRoles {
			if role == p {
				return true
			}
		}
	}
	return false
}
