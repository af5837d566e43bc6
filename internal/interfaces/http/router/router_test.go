package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/interfaces/http/handler"
	"github.com/compia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pong(c *gin.Context) { c.String(http.StatusOK, "pong") }

func withScope(role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetScope(c, identity.NewAccessScope(uuid.New(), uuid.New(), role, nil))
		c.Next()
	}
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, DefaultBasePath, r.basePath)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithBasePath("/v2"))
	assert.Equal(t, "/v2", r.basePath)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/test").GET("/ping", "", pong)

	NewRouter(engine).Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup_Permissions(t *testing.T) {
	build := func(role identity.Role) *gin.Engine {
		engine := gin.New()
		group := NewDomainGroup("inspections", "/inspections").
			GET("", identity.PermInspectionRead, pong).
			DELETE("/:id", identity.PermInspectionDelete, pong).
			Public(http.MethodGet, "/public", pong)
		NewRouter(engine).Register(group).Setup(withScope(role))
		return engine
	}

	client := build(identity.RoleClient)
	assert.Equal(t, http.StatusOK, serve(client, http.MethodGet, "/api/inspections").Code)
	assert.Equal(t, http.StatusForbidden, serve(client, http.MethodDelete, "/api/inspections/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusOK, serve(client, http.MethodGet, "/api/inspections/public").Code)

	manager := build(identity.RoleManager)
	assert.Equal(t, http.StatusOK, serve(manager, http.MethodDelete, "/api/inspections/"+uuid.NewString()).Code)
}

func TestDomainGroup_Subgroups(t *testing.T) {
	crm := NewDomainGroup("crm", "/crm")
	crm.Group("leads", "/leads").GET("", identity.PermCRMRead, pong).GET("/:id", identity.PermCRMRead, pong)

	routes := crm.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/crm/leads", routes[0].Path)
	assert.Equal(t, "/crm/leads/:id", routes[1].Path)
	assert.Equal(t, "crm", crm.Name())
	assert.Equal(t, "/crm", crm.Prefix())

	engine := gin.New()
	NewRouter(engine).Register(crm).Setup(withScope(identity.RoleOrgAdmin))
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/crm/leads").Code)
}

func allHandlers() Handlers {
	return Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Organization: handler.NewOrganizationHandler(nil),
		User:         handler.NewUserHandler(nil),
		Template:     handler.NewTemplateHandler(nil),
		Inspection:   handler.NewInspectionHandler(nil),
		Media:        handler.NewMediaHandler(nil),
		ActionItem:   handler.NewActionItemHandler(nil),
		Ata:          handler.NewAtaHandler(nil),
		Dashboard:    handler.NewDashboardHandler(nil),
		Lookup:       handler.NewLookupHandler(nil),
		Billing:      handler.NewBillingHandler(nil),
		Lead:         handler.NewLeadHandler(nil),
		Audit:        handler.NewAuditHandler(nil),
		System:       handler.NewSystemHandler("test", nil),
	}
}

func TestDomainGroups(t *testing.T) {
	groups := DomainGroups(allHandlers())

	r := NewRouter(gin.New())
	for _, g := range groups {
		r.Register(g)
	}
	require.NotPanics(t, func() { r.Setup() }, "routes must not conflict")

	public := map[string]bool{}
	seen := map[string]bool{}
	for _, g := range groups {
		for _, route := range g.Routes() {
			key := route.Method + " " + route.Path
			assert.False(t, seen[key], "duplicate route %s", key)
			seen[key] = true
			if route.Public {
				public[route.Path] = true
			}
		}
	}

	assert.Equal(t, map[string]bool{
		"/auth/login":   true,
		"/auth/refresh": true,
		"/cep/:cep":     true,
		"/cnpj/:cnpj":   true,
	}, public)
	assert.True(t, seen["POST /inspections/:id/finalize"])
	assert.True(t, seen["GET /dashboard/stats"])
}
