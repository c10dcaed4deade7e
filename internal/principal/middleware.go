package principal

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MockUsers mirrors the seeded accounts the platform ships with. Real
// deployments put a JWT in front instead; the header path stays for local
// development and the test harness.
var MockUsers = map[string]Principal{
	"netrunnerX":   {ID: "netrunnerX", Role: RoleAdmin},
	"reliefAdmin":  {ID: "reliefAdmin", Role: RoleAdmin},
	"contributor1": {ID: "contributor1", Role: RoleContributor},
}

// Resolver authenticates requests. A Bearer JWT wins when a signing key is
// configured; otherwise the X-User-ID header is matched against MockUsers.
type Resolver struct {
	signingKey []byte
	logger     *slog.Logger
}

// NewResolver builds a Resolver. An empty signingKey disables the JWT path.
func NewResolver(signingKey string, logger *slog.Logger) *Resolver {
	var key []byte
	if signingKey != "" {
		key = []byte(signingKey)
	}
	return &Resolver{signingKey: key, logger: logger}
}

// Middleware rejects requests with no resolvable principal.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p, ok := r.resolve(req)
		if !ok {
			r.logger.WarnContext(req.Context(), "unauthorized request",
				"path", req.URL.Path,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid user"}`))
			return
		}
		next.ServeHTTP(w, req.WithContext(WithPrincipal(req.Context(), p)))
	})
}

func (r *Resolver) resolve(req *http.Request) (Principal, bool) {
	authHeader := req.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && len(r.signingKey) > 0 {
		return r.fromJWT(token)
	}
	if userID := req.Header.Get("X-User-ID"); userID != "" {
		p, ok := MockUsers[userID]
		return p, ok
	}
	return Principal{}, false
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (r *Resolver) fromJWT(token string) (Principal, bool) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.signingKey, nil
	})
	if err != nil || !parsed.Valid || c.Subject == "" {
		return Principal{}, false
	}
	role := Role(c.Role)
	switch role {
	case RoleAdmin, RoleContributor:
	default:
		role = RoleOther
	}
	return Principal{ID: c.Subject, Role: role}, true
}
