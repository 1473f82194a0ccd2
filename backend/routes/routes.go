package routes

import (
	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"
	"project/backend/services"
	"project/backend/store"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	st := store.NewGormStore(db)

	completionService := services.NewCompletionService(st, st, st)
	enrollmentService := services.NewEnrollmentService(st, st)
	certificateService := services.NewCertificateService(st, st, completionService)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	instructorMiddleware := middleware.InstructorMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Dashboard
	dashboardController := controllers.NewDashboardController(db, cfg, st, st, st, completionService, enrollmentService)
	app.Get("/api/dashboard", authMiddleware, dashboardController.GetDashboard)

	// Certification routes
	catalogController := controllers.NewCatalogController(db, cfg, st, completionService, enrollmentService)
	enrollmentController := controllers.NewEnrollmentController(db, cfg, st, enrollmentService)
	progressController := controllers.NewProgressController(db, cfg, st, completionService, enrollmentService)
	certificatesController := controllers.NewCertificatesController(db, cfg, certificateService, st)

	certifications := app.Group("/api/certifications", authMiddleware)
	certifications.Get("/", catalogController.GetCertifications)
	certifications.Get("/:id", catalogController.GetCertificationDetails)
	certifications.Get("/:id/progress", progressController.GetCertificationProgress)
	certifications.Post("/:id/enroll", enrollmentController.Enroll)
	certifications.Delete("/:id/enroll", enrollmentController.Unenroll)
	certifications.Post("/:id/certificate", certificatesController.IssueCertificationCertificate)
	certifications.Get("/:id/certificate", certificatesController.GetCertificationCertificateRenderData)

	// Course routes
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/:id", catalogController.GetCourseDetails)
	courses.Get("/:id/progress", progressController.GetCourseProgress)
	courses.Post("/:id/certificate", certificatesController.IssueCourseCertificate)
	courses.Get("/:id/certificate", certificatesController.GetCourseCertificateRenderData)

	// Module routes
	modules := app.Group("/api/modules", authMiddleware)
	modules.Get("/:id", progressController.GetModule)
	modules.Post("/:id/complete", progressController.MarkModuleComplete)
	modules.Post("/:id/video-progress", progressController.UpdateVideoProgress)

	// Enrollment and certificate listings
	app.Get("/api/enrollments", authMiddleware, enrollmentController.ListEnrollments)
	app.Get("/api/certificates", authMiddleware, certificatesController.ListCertificates)

	// Admin routes for certifications
	adminCertifications := app.Group("/api/admin/certifications", authMiddleware, instructorMiddleware)
	adminCertifications.Post("/", catalogController.CreateCertification)
	adminCertifications.Put("/:id", catalogController.UpdateCertification)
	adminCertifications.Delete("/:id", catalogController.DeleteCertification)

	// Admin routes for courses and modules
	adminCourses := app.Group("/api/admin/courses", authMiddleware, instructorMiddleware)
	adminCourses.Post("/", catalogController.CreateCourse)
	adminCourses.Put("/:id", catalogController.UpdateCourse)
	adminCourses.Delete("/:id", catalogController.DeleteCourse)
	adminCourses.Post("/:id/modules", catalogController.CreateModule)
	adminCourses.Put("/:id/modules/:moduleId", catalogController.UpdateModule)
	adminCourses.Delete("/:id/modules/:moduleId", catalogController.DeleteModule)
}
