// Package router assembles the HTTP routes of the API from domain groups.
package router

import (
	"net/http"

	"github.com/compia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DefaultBasePath is where every authenticated API route lives
const DefaultBasePath = "/api"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath overrides the API prefix
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = path
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:   engine,
		basePath: DefaultBasePath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under the base path, behind the given middleware
func (r *Router) Setup(mw ...gin.HandlerFunc) *gin.RouterGroup {
	api := r.engine.Group(r.basePath, mw...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// Route is one endpoint of a domain group. An empty Permission means any
// authenticated caller; Public routes skip the permission check entirely.
type Route struct {
	Method     string
	Path       string
	Permission string
	Public     bool
	Handler    gin.HandlerFunc
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []Route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route guarded by permission
func (dg *DomainGroup) Handle(method, path, permission string, handler gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, Route{Method: method, Path: path, Permission: permission, Handler: handler})
	return dg
}

// Public registers a route that needs no permission
func (dg *DomainGroup) Public(method, path string, handler gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, Route{Method: method, Path: path, Public: true, Handler: handler})
	return dg
}

func (dg *DomainGroup) GET(path, permission string, handler gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, permission, handler)
}

func (dg *DomainGroup) POST(path, permission string, handler gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, permission, handler)
}

func (dg *DomainGroup) PUT(path, permission string, handler gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, path, permission, handler)
}

func (dg *DomainGroup) PATCH(path, permission string, handler gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPatch, path, permission, handler)
}

func (dg *DomainGroup) DELETE(path, permission string, handler gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, path, permission, handler)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if !route.Public && route.Permission != "" {
			handlers = append(handlers, middleware.RequirePermission(route.Permission))
		}
		handlers = append(handlers, route.Handler)
		group.Handle(route.Method, route.Path, handlers...)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Routes lists the routes of this group and its subgroups with full paths
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	for _, r := range dg.routes {
		r.Path = joinPath(dg.prefix, r.Path)
		out = append(out, r)
	}
	for _, sg := range dg.subgroups {
		for _, r := range sg.Routes() {
			r.Path = joinPath(dg.prefix, r.Path)
			out = append(out, r)
		}
	}
	return out
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

func joinPath(prefix, path string) string {
	switch {
	case path == "" || path == "/":
		if prefix == "" {
			return "/"
		}
		return prefix
	case prefix == "" || prefix == "/":
		return path
	default:
		return prefix + path
	}
}
