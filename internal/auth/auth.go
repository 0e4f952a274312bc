// Package auth resolves the caller's session and guards routes by role.
// Identity itself is owned by an external provider; this package only
// consumes a resolved (user, role) pair.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

type Role string

const (
	RoleResident       Role = "resident"
	RoleProspect       Role = "prospect"
	RoleMaintenance    Role = "maintenance"
	RoleOperator       Role = "operator"
	RoleLeasing        Role = "leasing"
	RoleSeniorOperator Role = "senior_operator"
	RoleSuperAdmin     Role = "super_admin"
	RoleVendor         Role = "vendor"
	RoleUnknown        Role = "unknown"
)

// Roles lists every known role.
var Roles = []Role{
	RoleResident, RoleProspect, RoleMaintenance, RoleOperator, RoleLeasing,
	RoleSeniorOperator, RoleSuperAdmin, RoleVendor,
}

// Staff is the operator family of roles.
var Staff = []Role{RoleOperator, RoleLeasing, RoleSeniorOperator}

// ParseRole maps unknown strings to RoleUnknown.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Roles, r) {
		return r
	}
	return RoleUnknown
}

var (
	ErrUnauthenticated = errors.New("not signed in")
	ErrForbidden       = errors.New("role not allowed")
)

// Session is the resolved caller.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	// ImpersonatedRole is set while a super admin views the app as
	// another role.
	ImpersonatedRole Role `json:"impersonatedRole,omitempty"`
}

// EffectiveRole is the role used for route checks.
func (s Session) EffectiveRole() Role {
	if s.ImpersonatedRole != "" {
		return s.ImpersonatedRole
	}
	return s.Role
}

// Actor is the display name written to timeline entries.
func (s Session) Actor() string {
	switch s.EffectiveRole() {
	case RoleResident:
		return "You"
	case RoleMaintenance:
		return "Maintenance"
	case RoleSuperAdmin:
		return "Admin"
	case RoleOperator, RoleLeasing, RoleSeniorOperator:
		return "Operator"
	}
	return "System"
}

// Impersonate returns a session viewing the app as role. Only super
// admins may impersonate; an empty role ends impersonation.
func (s Session) Impersonate(role Role) (Session, error) {
	if s.Role != RoleSuperAdmin {
		return s, fmt.Errorf("%w: only super admins can impersonate roles", ErrForbidden)
	}
	if role == "" {
		s.ImpersonatedRole = ""
		return s, nil
	}
	if !slices.Contains(Roles, role) {
		return s, fmt.Errorf("%w: unknown role %q", ErrForbidden, role)
	}
	s.ImpersonatedRole = role
	return s, nil
}

// DefaultRoute is where a session lands after sign-in or when it hits a
// route its role may not see.
func DefaultRoute(s Session, superAdminEmails []string) string {
	for _, e := range superAdminEmails {
		if e != "" && strings.EqualFold(e, s.Email) {
			return "/super-admin"
		}
	}
	switch s.EffectiveRole() {
	case RoleSuperAdmin:
		return "/super-admin"
	case RoleSeniorOperator, RoleOperator, RoleLeasing:
		return "/operator"
	case RoleMaintenance:
		return "/maintenance"
	case RoleResident:
		return "/"
	case RoleProspect:
		return "/discovery"
	}
	return "/unknown-role"
}

// Allowed reports whether the effective role may use a route limited to
// allowed. Super admins are always allowed; an empty list allows any
// signed-in role.
func Allowed(s Session, allowed ...Role) bool {
	if len(allowed) == 0 {
		return true
	}
	r := s.EffectiveRole()
	return r == RoleSuperAdmin || slices.Contains(allowed, r)
}

// Resolver turns a request into a session.
type Resolver interface {
	Resolve(r *http.Request) (Session, error)
}

// User is a configured account for StaticResolver.
type User struct {
	ID    string `yaml:"id" json:"id"`
	Email string `yaml:"email" json:"email"`
	Role  string `yaml:"role" json:"role"`
	Token string `yaml:"token" json:"-"`
}

// StaticResolver authenticates bearer tokens against a fixed user list.
type StaticResolver struct {
	users []User
}

func NewStaticResolver(users []User) *StaticResolver {
	return &StaticResolver{users: slices.Clone(users)}
}

func (sr *StaticResolver) Resolve(r *http.Request) (Session, error) {
	token := bearerToken(r)
	if token == "" {
		return Session{}, ErrUnauthenticated
	}
	for _, u := range sr.users {
		if u.Token == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(u.Token), []byte(token)) == 1 {
			return Session{UserID: u.ID, Email: u.Email, Role: ParseRole(u.Role)}, nil
		}
	}
	return Session{}, ErrUnauthenticated
}

// TokenHeader carries the token when Authorization is taken by basic auth.
const TokenHeader = "X-Auth-Token"

// bearerToken reads the Authorization bearer token, then TokenHeader,
// then the token query parameter used by calendar subscriptions.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if v, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	if v := r.Header.Get(TokenHeader); v != "" {
		return strings.TrimSpace(v)
	}
	return r.URL.Query().Get("token")
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Guard.Require.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
