package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/services"
	"project/backend/store"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CertificatesController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Certificates *services.CertificateService
	Store        store.Certificates
}

func NewCertificatesController(db *gorm.DB, cfg *config.Config, certificates *services.CertificateService, certStore store.Certificates) *CertificatesController {
	return &CertificatesController{DB: db, Cfg: cfg, Certificates: certificates, Store: certStore}
}

// IssueCourseCertificate issues the course certificate once completion holds.
// freshly_issued is true only for the call that created the record, which is
// what drives the client's one-time celebration.
func (cc *CertificatesController) IssueCourseCertificate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	cert, freshlyIssued, err := cc.Certificates.IssueCourseCertificate(userID, uint(courseID))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "Course not found")
		case errors.Is(err, services.ErrNotEligible):
			return utils.BadRequest(c, "Course is not complete yet")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not issue certificate",
		})
	}

	return c.JSON(fiber.Map{
		"certificate_id": cert.CertificateID,
		"issued_at":      cert.IssuedAt,
		"freshly_issued": freshlyIssued,
	})
}

// IssueCertificationCertificate is the certification-level variant; the
// eligibility check already encodes the enrollment requirement.
func (cc *CertificatesController) IssueCertificationCertificate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	cert, freshlyIssued, err := cc.Certificates.IssueCertificationCertificate(userID, uint(certificationID))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "Certification not found")
		case errors.Is(err, services.ErrNotEligible):
			return utils.BadRequest(c, "Certification is not complete yet")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not issue certificate",
		})
	}

	return c.JSON(fiber.Map{
		"certificate_id": cert.CertificateID,
		"issued_at":      cert.IssuedAt,
		"freshly_issued": freshlyIssued,
	})
}

// ListCertificates returns every certificate the user has earned.
func (cc *CertificatesController) ListCertificates(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseCerts, err := cc.Store.ListCourseCertificates(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificates",
		})
	}
	certificationCerts, err := cc.Store.ListCertificationCertificates(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificates",
		})
	}

	return c.JSON(fiber.Map{
		"course_certificates":        courseCerts,
		"certification_certificates": certificationCerts,
	})
}

// GetCourseCertificateRenderData exposes the exact field set the external
// PDF renderer consumes.
func (cc *CertificatesController) GetCourseCertificateRenderData(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	cert, err := cc.Store.CourseCertificate(userID, uint(courseID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Certificate not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificate",
		})
	}

	data, err := cc.Certificates.CourseRenderData(user, cert)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not assemble certificate data",
		})
	}

	return c.JSON(data)
}

// GetCertificationCertificateRenderData additionally carries the ordered
// course titles printed on the certificate.
func (cc *CertificatesController) GetCertificationCertificateRenderData(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	cert, err := cc.Store.CertificationCertificate(userID, uint(certificationID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Certificate not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch certificate",
		})
	}

	data, err := cc.Certificates.CertificationRenderData(user, cert)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Certification not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not assemble certificate data",
		})
	}

	return c.JSON(data)
}
