package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"intercom/internal/domain"
	"intercom/internal/netutil"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// ManagementClaims are the claims management tokens carry. Token issuance
// belongs to the identity service; this service only verifies.
type ManagementClaims struct {
	Role        string   `json:"role"`
	BuildingIDs []string `json:"building_ids,omitempty"`
	jwt.RegisteredClaims
}

// RequireAuth parses a HS256 bearer token and stashes the resulting actor in
// the request context. Everything behind it is a management endpoint.
func RequireAuth(signingKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header", CodeUnauthorized)
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")

			var claims ManagementClaims
			_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return signingKey, nil
			})
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid authorization token", CodeUnauthorized)
				return
			}

			actor, err := actorFromClaims(&claims)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid authorization token", CodeUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromClaims(claims *ManagementClaims) (domain.Actor, error) {
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Actor{}, err
	}
	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleResident, domain.RoleStaff, domain.RoleAdmin:
	default:
		return domain.Actor{}, errors.New("unknown role")
	}
	buildings := make([]domain.BuildingID, 0, len(claims.BuildingIDs))
	for _, raw := range claims.BuildingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.Actor{}, err
		}
		buildings = append(buildings, id)
	}
	return domain.Actor{UserID: sub, Role: role, BuildingIDs: buildings}, nil
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(domain.Actor)
	return actor, ok
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// XFF can be a list: client, proxy1, proxy2...
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if normalized, ok := netutil.NormalizeIP(ip); ok {
			return normalized
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		if normalized, ok := netutil.NormalizeIP(xr); ok {
			return normalized
		}
	}
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	return r.RemoteAddr
}
