package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"go_commission/handlers"
	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/navigation"
	"go_commission/utils"
)

// Dependencies 路由需要的处理器和认证组件
type Dependencies struct {
	DB  *gorm.DB
	JWT *utils.JWTManager
	Log *logger.Logger

	Auth      *handlers.AuthHandler
	Members   *handlers.MemberHandler
	Contracts *handlers.ContractHandler
	Dashboard *handlers.DashboardHandler
	Team      *handlers.TeamHandler
	Levels    *handlers.LevelHandler
}

// SetupRoutes 设置所有API路由
func SetupRoutes(app *fiber.App, deps Dependencies) {
	api := app.Group("/api")
	auth := middleware.AuthMiddleware(deps.DB, deps.JWT, deps.Log)

	setupAuthRoutes(api, deps, auth)
	setupAdminRoutes(api, deps, auth)
	setupMemberRoutes(api, deps, auth)
	setupLevelRoutes(api, deps, auth)

	api.Get("/navigation", auth, handlers.Navigation)
}

// setupAuthRoutes 登录、刷新令牌和设备管理
// 登录和刷新不需要认证中间件，刷新时令牌可能已过期
func setupAuthRoutes(api fiber.Router, deps Dependencies, auth fiber.Handler) {
	group := api.Group("/auth")

	group.Post("/login", deps.Auth.Login)
	group.Post("/refresh", deps.Auth.RefreshToken)
	group.Post("/logout", auth, deps.Auth.Logout)
	group.Get("/devices", auth, deps.Auth.Devices)
	group.Delete("/devices/:id", auth, deps.Auth.LogoutDevice)
}

// setupAdminRoutes 成员管理，仅管理员可用
func setupAdminRoutes(api fiber.Router, deps Dependencies, auth fiber.Handler) {
	admin := api.Group("/admin", auth, middleware.RequirePermission(navigation.PermAdmin))

	admin.Post("/members", deps.Members.Create)
	admin.Get("/members", deps.Members.List)
	admin.Get("/members/:id", deps.Members.Get)
	admin.Put("/members/:id", deps.Members.Update)
	admin.Delete("/members/:id", deps.Members.Delete)
	admin.Delete("/members/:id/logout", deps.Auth.ForceLogout)
}

// setupMemberRoutes 成员自己的客户、合同、看板和团队
func setupMemberRoutes(api fiber.Router, deps Dependencies, auth fiber.Handler) {
	member := api.Group("/member", auth)

	clients := member.Group("/clients", middleware.RequirePermission(navigation.PermManageClients))
	clients.Post("/", deps.Contracts.CreateClient)
	clients.Get("/", deps.Contracts.ListClients)

	contracts := member.Group("/contracts", middleware.RequirePermission(navigation.PermManageContracts))
	contracts.Post("/", deps.Contracts.CreateContract)
	contracts.Get("/", deps.Contracts.ListContracts)
	contracts.Get("/export", deps.Contracts.ExportContracts)
	contracts.Put("/:id/sign", deps.Contracts.SignContract)
	contracts.Put("/:id/cancel", deps.Contracts.CancelContract)

	member.Get("/dashboard", middleware.RequirePermission(navigation.PermViewDashboard), deps.Dashboard.Get)

	member.Get("/team", middleware.RequirePermission(navigation.PermViewTeam), deps.Team.Hierarchy)
	member.Post("/invitations", middleware.RequirePermission(navigation.PermInviteMembers), deps.Team.CreateInvitation)
	// 新成员尚无团队，接受邀请不要求团队权限
	member.Post("/invitations/accept", deps.Team.AcceptInvitation)
}

// setupLevelRoutes 职级规则查询与试算
func setupLevelRoutes(api fiber.Router, deps Dependencies, auth fiber.Handler) {
	levels := api.Group("/levels", auth, middleware.RequirePermission(navigation.PermViewLevels))

	levels.Get("/", deps.Levels.List)
	levels.Post("/evaluate", deps.Levels.Evaluate)
}
