package auth

import (
	"encoding/json"
	"net/http"

	appLog "propcal/internal/log"
)

// ImpersonateHeader selects a role to view as (super admins only).
const ImpersonateHeader = "X-Impersonate-Role"

// Guard resolves sessions and enforces per-route role lists.
type Guard struct {
	Resolver         Resolver
	SuperAdminEmails []string
}

// Require wraps next so that only sessions whose effective role is in
// allowed reach it. Unauthenticated requests get 401; other roles get 403
// with their default route in the body and a Location header.
func (g Guard) Require(next http.Handler, allowed ...Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := g.Resolver.Resolve(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, err.Error(), "/login")
			return
		}
		if role := r.Header.Get(ImpersonateHeader); role != "" {
			s, err = s.Impersonate(ParseRole(role))
			if err != nil {
				appLog.Warn("impersonation refused", "user_id", s.UserID, "role", role)
				writeAuthError(w, http.StatusForbidden, err.Error(), DefaultRoute(s, g.SuperAdminEmails))
				return
			}
		}
		if !Allowed(s, allowed...) {
			dest := DefaultRoute(s, g.SuperAdminEmails)
			appLog.Debug("role not allowed", "user_id", s.UserID, "role", s.EffectiveRole(), "path", r.URL.Path)
			w.Header().Set("Location", dest)
			writeAuthError(w, http.StatusForbidden, ErrForbidden.Error(), dest)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, msg, redirect string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error    string `json:"error"`
		Redirect string `json:"redirect"`
	}{msg, redirect})
}
