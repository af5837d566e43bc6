package router

import (
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoints the API exposes
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	User         *handler.UserHandler
	Template     *handler.TemplateHandler
	Inspection   *handler.InspectionHandler
	Media        *handler.MediaHandler
	ActionItem   *handler.ActionItemHandler
	Ata          *handler.AtaHandler
	Dashboard    *handler.DashboardHandler
	Lookup       *handler.LookupHandler
	Billing      *handler.BillingHandler
	Lead         *handler.LeadHandler
	Audit        *handler.AuditHandler
	System       *handler.SystemHandler
}

// DomainGroups builds the route groups of every domain. Routes where users
// act on their own record carry no permission; the services check those.
func DomainGroups(h Handlers) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth").
		Public("POST", "/login", h.Auth.Login).
		Public("POST", "/refresh", h.Auth.Refresh).
		POST("/logout", "", h.Auth.Logout).
		GET("/me", "", h.Auth.Me).
		PUT("/password", "", h.Auth.ChangePassword)

	lookup := NewDomainGroup("lookup", "").
		Public("GET", "/cep/:cep", h.Lookup.CEP).
		Public("GET", "/cnpj/:cnpj", h.Lookup.CNPJ)

	orgs := NewDomainGroup("organizations", "/organizations").
		POST("", identity.PermOrganizationCreate, h.Organization.Create).
		GET("", identity.PermOrganizationRead, h.Organization.List).
		GET("/tree", identity.PermOrganizationRead, h.Organization.Tree).
		GET("/:id", identity.PermOrganizationRead, h.Organization.Get).
		PATCH("/:id", identity.PermOrganizationUpdate, h.Organization.Update).
		POST("/:id/suspend", identity.PermOrganizationManage, h.Organization.Suspend).
		POST("/:id/activate", identity.PermOrganizationManage, h.Organization.Activate).
		GET("/:id/children", identity.PermOrganizationRead, h.Organization.Children)

	users := NewDomainGroup("users", "/users").
		POST("", identity.PermUserCreate, h.User.Create).
		GET("", identity.PermUserRead, h.User.List).
		GET("/:id", "", h.User.Get).
		PUT("/:id", "", h.User.Update).
		PUT("/:id/role", identity.PermUserUpdate, h.User.ChangeRole).
		PUT("/:id/password", identity.PermUserUpdate, h.User.ResetPassword).
		POST("/:id/deactivate", identity.PermUserDelete, h.User.Deactivate).
		POST("/:id/activate", identity.PermUserUpdate, h.User.Activate)

	checklists := NewDomainGroup("checklists", "/checklists").
		POST("", identity.PermChecklistCreate, h.Template.Create).
		GET("", identity.PermChecklistRead, h.Template.List).
		GET("/:id", identity.PermChecklistRead, h.Template.Get).
		PUT("/:id", identity.PermChecklistUpdate, h.Template.Update).
		POST("/:id/duplicate", identity.PermChecklistCreate, h.Template.Duplicate).
		DELETE("/:id", identity.PermChecklistDelete, h.Template.Delete)

	inspections := NewDomainGroup("inspections", "/inspections").
		POST("", identity.PermInspectionCreate, h.Inspection.Create).
		GET("", identity.PermInspectionRead, h.Inspection.List).
		GET("/:id", identity.PermInspectionRead, h.Inspection.Get).
		PUT("/:id", identity.PermInspectionUpdate, h.Inspection.Update).
		DELETE("/:id", identity.PermInspectionDelete, h.Inspection.Delete).
		POST("/:id/start", identity.PermInspectionUpdate, h.Inspection.Start).
		POST("/:id/cancel", identity.PermInspectionUpdate, h.Inspection.Cancel).
		POST("/:id/reopen", identity.PermInspectionReopen, h.Inspection.Reopen).
		POST("/:id/finalize", identity.PermInspectionFinalize, h.Inspection.Finalize).
		POST("/:id/items", identity.PermInspectionUpdate, h.Inspection.AddItem).
		PUT("/:id/items", identity.PermInspectionUpdate, h.Inspection.UpdateItems).
		PUT("/:id/items/:itemId", identity.PermInspectionUpdate, h.Inspection.UpdateItem).
		DELETE("/:id/items/:itemId", identity.PermInspectionUpdate, h.Inspection.DeleteItem).
		POST("/:id/media/upload-url", identity.PermMediaUpload, h.Media.UploadURL).
		POST("/:id/media", identity.PermMediaUpload, h.Media.Register).
		GET("/:id/media", identity.PermMediaRead, h.Media.List).
		POST("/:id/ata/audio-url", identity.PermAtaGenerate, h.Ata.AudioUploadURL).
		POST("/:id/ata", identity.PermAtaGenerate, h.Ata.Generate).
		GET("/:id/ata", identity.PermAtaRead, h.Ata.GetLatest)

	media := NewDomainGroup("media", "/media").
		GET("/:mediaId/download-url", identity.PermMediaRead, h.Media.DownloadURL).
		DELETE("/:mediaId", identity.PermMediaDelete, h.Media.Delete)

	atas := NewDomainGroup("atas", "/atas").
		GET("", identity.PermAtaRead, h.Ata.List).
		GET("/:ataId", identity.PermAtaRead, h.Ata.Get).
		POST("/:ataId/retry", identity.PermAtaGenerate, h.Ata.Retry).
		PUT("/:ataId/transcript", identity.PermAtaGenerate, h.Ata.UpdateTranscript)

	actionItems := NewDomainGroup("action-items", "/action-items").
		POST("", identity.PermActionItemCreate, h.ActionItem.Create).
		GET("", identity.PermActionItemRead, h.ActionItem.List).
		GET("/:id", identity.PermActionItemRead, h.ActionItem.Get).
		PUT("/:id", identity.PermActionItemUpdate, h.ActionItem.Update).
		PATCH("/:id/status", identity.PermActionItemUpdate, h.ActionItem.ChangeStatus).
		DELETE("/:id", identity.PermActionItemDelete, h.ActionItem.Delete)

	dashboard := NewDomainGroup("dashboard", "/dashboard").
		GET("/stats", identity.PermDashboardRead, h.Dashboard.Stats)

	billing := NewDomainGroup("billing", "/billing").
		GET("/plan", identity.PermBillingRead, h.Billing.GetPlan)

	crm := NewDomainGroup("crm", "/crm")
	crm.Group("leads", "/leads").
		POST("", identity.PermCRMWrite, h.Lead.Create).
		GET("", identity.PermCRMRead, h.Lead.List).
		GET("/:id", identity.PermCRMRead, h.Lead.Get).
		PUT("/:id", identity.PermCRMWrite, h.Lead.Update).
		PATCH("/:id/stage", identity.PermCRMWrite, h.Lead.MoveStage).
		POST("/:id/convert", identity.PermCRMWrite, h.Lead.Convert).
		DELETE("/:id", identity.PermCRMDelete, h.Lead.Delete)

	audit := NewDomainGroup("audit", "/audit-logs").
		GET("", identity.PermAuditRead, h.Audit.List)

	system := NewDomainGroup("system", "/system").
		GET("/info", "", h.System.GetSystemInfo)

	return []*DomainGroup{
		auth, lookup, orgs, users, checklists, inspections, media, atas,
		actionItems, dashboard, billing, crm, audit, system,
	}
}
