// Package guard gates navigation on the stored role. Resolution is
// synchronous against the in-memory session; no network call is involved.
package guard

import (
	"strings"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

const LoginPath = "/login"

// Default landing destination per role.
var homePaths = map[string]string{
	model.RoleAdmin: "/admin/employees",
	model.RoleUser:  "/user/home",
	model.RoleBill:  "/billing",
}

type Route struct {
	Path  string
	Roles []string
}

// Routes mirrors the application's protected destinations. A route with no
// roles is open to any signed-in user.
var Routes = []Route{
	{Path: "/admin/employees", Roles: []string{model.RoleAdmin}},
	{Path: "/upload", Roles: []string{model.RoleUser}},
	{Path: "/user/home", Roles: []string{model.RoleUser}},
	{Path: "/payroll/entry/", Roles: []string{model.RoleUser}},
	{Path: "/payroll/attendance-casual/", Roles: []string{model.RoleUser}},
	{Path: "/reports", Roles: []string{model.RoleUser, model.RoleAdmin}},
	{Path: "/billing", Roles: []string{model.RoleBill}},
}

// RoleSource yields the currently active role, or "" when signed out.
type RoleSource interface {
	Role() string
}

type Guard struct {
	roles  RoleSource
	routes []Route
}

func New(roles RoleSource) *Guard {
	return &Guard{roles: roles, routes: Routes}
}

// Resolve returns the destination navigation should actually land on:
// the requested path when the active role is authorized for it, the role's
// home when it is not, and the login boundary when no role is stored or the
// path is unknown.
func (g *Guard) Resolve(dest string) string {
	role := g.roles.Role()
	if role == "" {
		return LoginPath
	}

	route, ok := g.match(dest)
	if !ok {
		return LoginPath
	}

	if len(route.Roles) == 0 {
		return dest
	}
	for _, allowed := range route.Roles {
		if allowed == role {
			return dest
		}
	}
	return HomePath(role)
}

// Allowed reports whether navigation to dest would land on dest itself.
func (g *Guard) Allowed(dest string) bool {
	return g.Resolve(dest) == dest
}

func (g *Guard) match(dest string) (Route, bool) {
	for _, route := range g.routes {
		if strings.HasSuffix(route.Path, "/") {
			if strings.HasPrefix(dest, route.Path) {
				return route, true
			}
			continue
		}
		if dest == route.Path {
			return route, true
		}
	}
	return Route{}, false
}

// HomePath returns the default landing destination for a role, or the login
// boundary for an unknown one.
func HomePath(role string) string {
	if home, ok := homePaths[role]; ok {
		return home
	}
	return LoginPath
}
