package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/handler"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/config"
)

type routeDeps struct {
	auth      middleware.TokenValidator
	auditRepo middleware.AuditWriter
	logger    *zap.Logger

	health     *handler.MetricsHandler
	auths      *handler.AuthHandler
	users      *handler.UserHandler
	categories *handler.CategoryHandler
	courses    *handler.CourseHandler
	approvals  *handler.ApprovalHandler
	dashboards *handler.DashboardHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, d routeDeps) {
	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	authed := middleware.JWT(d.auth)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", d.auths.Login)
	auth.POST("/register", d.auths.Register)
	auth.POST("/refresh", d.auths.Refresh)
	auth.POST("/logout", authed, d.auths.Logout)
	auth.POST("/change-password", authed, d.auths.ChangePassword)
	auth.GET("/me", authed, d.auths.Me)

	users := api.Group("/users", authed)
	users.GET("", admin, d.users.List)
	users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf), d.users.Get)
	users.POST("", admin, d.users.Create)
	users.PUT("/:id", admin, d.users.Update)
	users.DELETE("/:id", admin, d.users.Delete)

	categories := api.Group("/categories", authed)
	categories.GET("", d.categories.List)
	categories.GET("/:id", d.categories.Get)
	categories.POST("", admin, d.categories.Create)
	categories.PUT("/:id", admin, d.categories.Update)
	categories.DELETE("/:id", admin, d.categories.Delete)

	manage := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	courses := api.Group("/courses", authed)
	courses.GET("", d.courses.List)
	courses.GET("/:id", d.courses.Get)
	courses.POST("", manage, d.courses.Create)
	courses.PUT("/:id", manage, d.courses.Update)
	courses.DELETE("/:id", manage, d.courses.Delete)

	review := api.Group("/admin/courses", authed, admin)
	review.GET("", d.approvals.Queue)
	review.GET("/export", middleware.Audit(d.auditRepo, d.logger, models.AuditActionExport, "courses"), d.approvals.Export)
	review.POST("/:id/approve", d.approvals.Approve)
	review.POST("/:id/reject", d.approvals.Reject)

	if cfg.Dashboard.Enabled {
		dashboard := api.Group("/dashboard", authed)
		dashboard.GET("/admin", admin, d.dashboards.Admin)
		dashboard.GET("/instructor", middleware.RequireRoles(models.RoleInstructor), d.dashboards.Instructor)
		dashboard.GET("/student", d.dashboards.Student)
	}
}
