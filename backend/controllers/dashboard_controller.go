package controllers

import (
	"project/backend/config"
	"project/backend/models"
	"project/backend/services"
	"project/backend/store"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const recentActivityLimit = 5

type DashboardController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Hierarchy    store.Hierarchy
	Ledger       store.ProgressLedger
	Certificates store.Certificates
	Completion   *services.CompletionService
	Enrollment   *services.EnrollmentService
}

func NewDashboardController(db *gorm.DB, cfg *config.Config, hierarchy store.Hierarchy, ledger store.ProgressLedger, certificates store.Certificates, completion *services.CompletionService, enrollment *services.EnrollmentService) *DashboardController {
	return &DashboardController{
		DB:           db,
		Cfg:          cfg,
		Hierarchy:    hierarchy,
		Ledger:       ledger,
		Certificates: certificates,
		Completion:   completion,
		Enrollment:   enrollment,
	}
}

// GetDashboard godoc
// @Summary User dashboard
// @Description Enrolled certifications with progress, recent module activity
// and earned certificates
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	enrollments, err := dc.Enrollment.ListByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch enrollments",
		})
	}

	certifications := make([]fiber.Map, 0, len(enrollments))
	for _, enrollment := range enrollments {
		certification, err := dc.Hierarchy.CertificationByID(enrollment.CertificationID)
		if err != nil {
			continue
		}
		progress, err := dc.Completion.CertificationProgress(userID, certification)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not compute progress",
			})
		}
		isComplete, err := dc.Completion.CertificationIsComplete(userID, certification)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not compute progress",
			})
		}

		certifications = append(certifications, fiber.Map{
			"id":                 certification.ID,
			"title":              certification.Title,
			"certification_type": certification.CertificationType,
			"thumbnail_url":      certification.ThumbnailURL,
			"progress":           progress,
			"is_complete":        isComplete,
			"enrolled_at":        enrollment.EnrolledAt,
		})
	}

	recent, err := dc.Ledger.RecentForUser(userID, recentActivityLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch recent activity",
		})
	}

	recentActivity := make([]fiber.Map, 0, len(recent))
	for _, progress := range recent {
		entry := fiber.Map{
			"module_id":     progress.ModuleID,
			"is_completed":  progress.IsCompleted,
			"last_accessed": progress.LastAccessed,
		}
		var module models.Module
		if err := dc.DB.First(&module, progress.ModuleID).Error; err == nil {
			entry["module_title"] = module.Title
			entry["course_id"] = module.CourseID
		}
		recentActivity = append(recentActivity, entry)
	}

	courseCerts, err := dc.Certificates.ListCourseCertificates(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificates",
		})
	}
	certificationCerts, err := dc.Certificates.ListCertificationCertificates(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificates",
		})
	}

	return c.JSON(fiber.Map{
		"certifications":  certifications,
		"recent_activity": recentActivity,
		"certificates": fiber.Map{
			"courses":        courseCerts,
			"certifications": certificationCerts,
		},
	})
}
