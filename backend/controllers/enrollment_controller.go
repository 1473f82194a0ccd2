package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/services"
	"project/backend/store"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EnrollmentController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Hierarchy  store.Hierarchy
	Enrollment *services.EnrollmentService
}

func NewEnrollmentController(db *gorm.DB, cfg *config.Config, hierarchy store.Hierarchy, enrollment *services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{DB: db, Cfg: cfg, Hierarchy: hierarchy, Enrollment: enrollment}
}

// Enroll registers the user into a certification. Enrolling twice is
// reported as a conflict but treated as informational by clients.
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	enrollment, err := ec.Enrollment.Enroll(userID, uint(certificationID))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "Certification not found")
		case errors.Is(err, store.ErrAlreadyEnrolled):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message":     "Already enrolled in this certification",
				"is_enrolled": true,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not enroll",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Enrolled successfully",
		"is_enrolled": true,
		"enrollment": fiber.Map{
			"certification_id": enrollment.CertificationID,
			"enrolled_at":      enrollment.EnrolledAt,
		},
	})
}

// Unenroll removes the enrollment and, with it, the user's certification
// progress and certificate eligibility.
func (ec *EnrollmentController) Unenroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	if err := ec.Enrollment.Unenroll(userID, uint(certificationID)); err != nil {
		if errors.Is(err, services.ErrNotEnrolled) {
			return c.JSON(fiber.Map{
				"message":     "Not enrolled in this certification",
				"is_enrolled": false,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not unenroll",
		})
	}

	return c.JSON(fiber.Map{
		"message":     "Unenrolled successfully",
		"is_enrolled": false,
	})
}

// ListEnrollments returns the user's enrollments with certification titles.
func (ec *EnrollmentController) ListEnrollments(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	enrollments, err := ec.Enrollment.ListByUser(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch enrollments",
		})
	}

	result := make([]fiber.Map, 0, len(enrollments))
	for _, enrollment := range enrollments {
		entry := fiber.Map{
			"certification_id": enrollment.CertificationID,
			"enrolled_at":      enrollment.EnrolledAt,
		}
		if certification, err := ec.Hierarchy.CertificationByID(enrollment.CertificationID); err == nil {
			entry["title"] = certification.Title
			entry["certification_type"] = certification.CertificationType
		}
		result = append(result, entry)
	}

	return c.JSON(fiber.Map{
		"enrollments": result,
	})
}
