package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/pkg/config"
	"github.com/noah-isme/course-eval-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-eval-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-eval-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, a *app, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", a.metricsHandler.Health)
	r.GET("/ready", a.metricsHandler.Ready)
	r.GET("/metrics", a.metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return middleware.Audit(a.auditRepo, logr, action, resource, idParam)
	}

	auth := api.Group("/auth")
	auth.POST("/admin/login", a.authHandler.AdminLogin)
	auth.POST("/student/login", a.authHandler.StudentLogin)
	auth.POST("/logout", middleware.JWT(a.auth), a.authHandler.Logout)
	auth.GET("/me", middleware.JWT(a.auth), a.authHandler.Me)

	// signed links work without a session; a bearer token, when sent, attributes the audit row
	api.GET("/reports/exports/download/:token",
		middleware.OptionalJWT(a.auth),
		audit(models.AuditActionDownload, "report_export", ""),
		a.reportHandler.Download,
	)

	student := api.Group("/student", middleware.JWT(a.auth), middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/profile", a.portalHandler.Profile)
		student.PUT("/profile", a.portalHandler.UpdateProfile)
		student.GET("/evaluations/assigned", a.portalHandler.AssignedEvaluations)
		student.GET("/evaluations/completed", a.portalHandler.CompletedEvaluations)
		student.GET("/evaluations/templates/:id", a.portalHandler.TemplateContent)
		student.POST("/evaluations/submit", a.portalHandler.SubmitEvaluation)
		student.GET("/courses/upcoming", a.portalHandler.UpcomingCourses)
		student.GET("/courses/:code/faculty", a.portalHandler.CourseFaculty)
		student.POST("/complaints", a.portalHandler.SubmitComplaint)
		student.GET("/complaints", a.portalHandler.Complaints)
		student.POST("/faculty-requests", a.portalHandler.SubmitFacultyRequest)
	}

	admin := api.Group("/admin", middleware.JWT(a.auth), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", a.dashboardHandler.Admin)
	admin.GET("/settings", a.dashboardHandler.Settings)
	admin.PUT("/settings", audit(models.AuditActionUpdate, "settings", ""), a.dashboardHandler.SaveSettings)
	admin.GET("/system/metrics", a.metricsHandler.System)

	calendar := admin.Group("/calendar")
	{
		calendar.GET("", a.calendarHandler.List)
		calendar.GET("/month", a.calendarHandler.Month)
		calendar.POST("", audit(models.AuditActionCreate, "calendar_event", ""), a.calendarHandler.Create)
		calendar.PUT("/:id", audit(models.AuditActionUpdate, "calendar_event", "id"), a.calendarHandler.Update)
		calendar.DELETE("/:id", audit(models.AuditActionDelete, "calendar_event", "id"), a.calendarHandler.Delete)
	}

	users := admin.Group("", middleware.RequirePermission(models.PermManageUsers))
	{
		users.GET("/students", a.studentHandler.List)
		users.GET("/students/sessions", a.studentHandler.Sessions)
		users.GET("/students/departments", a.studentHandler.Departments)
		users.GET("/students/batches", a.studentHandler.Batches)
		users.GET("/students/:id", a.studentHandler.Get)
		users.POST("/students", audit(models.AuditActionCreate, "student", ""), a.studentHandler.Create)
		users.PUT("/students/:id", audit(models.AuditActionUpdate, "student", "id"), a.studentHandler.Update)
		users.DELETE("/students/:id", audit(models.AuditActionDelete, "student", "id"), a.studentHandler.Delete)

		users.GET("/faculty", a.facultyHandler.List)
		users.GET("/faculty/:id", a.facultyHandler.Get)
		users.GET("/faculty/:id/courses", a.facultyHandler.Courses)
		users.POST("/faculty", audit(models.AuditActionCreate, "faculty", ""), a.facultyHandler.Create)
		users.PUT("/faculty/:id", audit(models.AuditActionUpdate, "faculty", "id"), a.facultyHandler.Update)
		users.DELETE("/faculty/:id", audit(models.AuditActionDelete, "faculty", "id"), a.facultyHandler.Delete)

		users.GET("/admins", a.adminHandler.List)
		users.GET("/admins/:id", a.adminHandler.Get)
		users.POST("/admins", audit(models.AuditActionCreate, "admin", ""), a.adminHandler.Create)
		users.PUT("/admins/:id", audit(models.AuditActionUpdate, "admin", "id"), a.adminHandler.Update)
		users.DELETE("/admins/:id", audit(models.AuditActionDelete, "admin", "id"), a.adminHandler.Delete)
	}

	courses := admin.Group("/courses", middleware.RequirePermission(models.PermManageCourses))
	{
		courses.GET("", a.courseHandler.List)
		courses.GET("/overview", a.courseHandler.Overview)
		courses.GET("/:code", a.courseHandler.Get)
		courses.POST("", audit(models.AuditActionCreate, "course", ""), a.courseHandler.Create)
		courses.PUT("/:code", audit(models.AuditActionUpdate, "course", "code"), a.courseHandler.Update)
		courses.DELETE("/:code", audit(models.AuditActionDelete, "course", "code"), a.courseHandler.Delete)

		courses.GET("/:code/faculty", a.courseHandler.Faculty)
		courses.POST("/:code/faculty", audit(models.AuditActionAssign, "course_faculty", "code"), a.courseHandler.AssignFaculty)
		courses.DELETE("/:code/faculty", audit(models.AuditActionUnassign, "course_faculty", "code"), a.courseHandler.UnassignFaculty)
		courses.POST("/:code/students", audit(models.AuditActionAssign, "course_student", "code"), a.courseHandler.AssignStudent)
		courses.DELETE("/:code/students", audit(models.AuditActionUnassign, "course_student", "code"), a.courseHandler.UnassignStudent)
		courses.POST("/:code/batches", audit(models.AuditActionAssign, "course_batch", "code"), a.courseHandler.AssignBatch)
		courses.DELETE("/:code/batches", audit(models.AuditActionUnassign, "course_batch", "code"), a.courseHandler.UnassignBatch)
		courses.GET("/:code/enrollments", a.courseHandler.Enrollments)
	}

	templates := admin.Group("", middleware.RequirePermission(models.PermCreateTemplates))
	{
		templates.GET("/templates", a.templateHandler.List)
		templates.GET("/templates/ongoing", a.templateHandler.Ongoing)
		templates.GET("/templates/past", a.templateHandler.Past)
		templates.GET("/templates/running-count", a.templateHandler.RunningCount)
		templates.GET("/templates/:id", a.templateHandler.Get)
		templates.GET("/templates/:id/completion", a.templateHandler.Completion)
		templates.POST("/templates", audit(models.AuditActionCreate, "evaluation_template", ""), a.templateHandler.Create)
		templates.PUT("/templates/:id", audit(models.AuditActionUpdate, "evaluation_template", "id"), a.templateHandler.Update)
		templates.DELETE("/templates/:id", audit(models.AuditActionDelete, "evaluation_template", "id"), a.templateHandler.Delete)
		templates.POST("/templates/:id/assign", audit(models.AuditActionAssign, "evaluation_template", "id"), a.templateHandler.Assign)
		templates.PUT("/templates/:id/deadline", audit(models.AuditActionUpdate, "evaluation_template", "id"), a.templateHandler.ExtendDeadline)

		templates.GET("/courses/:code/templates", a.templateHandler.ForCourse)
		templates.DELETE("/courses/:code/templates/:id", audit(models.AuditActionUnassign, "evaluation_template", "id"), a.templateHandler.UnassignFromCourse)
	}

	reports := admin.Group("/reports", middleware.RequirePermission(models.PermViewReports))
	{
		reports.GET("/aggregate", a.reportHandler.Aggregate)
		reports.GET("/faculty/:id/scores", a.reportHandler.FacultyScores)
		reports.POST("/exports", audit(models.AuditActionCreate, "report_export", ""), a.reportHandler.CreateExport)
		reports.GET("/exports/:id", a.reportHandler.ExportStatus)
	}

	support := admin.Group("", middleware.RequirePermission(models.PermManageComplaints))
	{
		support.GET("/complaints", a.complaintHandler.List)
		support.GET("/complaints/:id", a.complaintHandler.Get)
		support.PUT("/complaints/:id/status", audit(models.AuditActionUpdate, "complaint", "id"), a.complaintHandler.UpdateStatus)
		support.POST("/complaints/:id/comments", audit(models.AuditActionUpdate, "complaint", "id"), a.complaintHandler.AddComment)
		support.GET("/faculty-requests", a.complaintHandler.ListFacultyRequests)
		support.GET("/faculty-requests/:id", a.complaintHandler.GetFacultyRequest)
		support.PUT("/faculty-requests/:id/status", audit(models.AuditActionUpdate, "faculty_request", "id"), a.complaintHandler.UpdateFacultyRequestStatus)
	}

	return r
}
