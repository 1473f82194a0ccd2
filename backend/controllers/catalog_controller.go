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

type CatalogController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Hierarchy  store.Hierarchy
	Completion *services.CompletionService
	Enrollment *services.EnrollmentService
}

func NewCatalogController(db *gorm.DB, cfg *config.Config, hierarchy store.Hierarchy, completion *services.CompletionService, enrollment *services.EnrollmentService) *CatalogController {
	return &CatalogController{DB: db, Cfg: cfg, Hierarchy: hierarchy, Completion: completion, Enrollment: enrollment}
}

func (cc *CatalogController) GetCertifications(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certifications, err := cc.Hierarchy.ActiveCertifications()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	result := make([]fiber.Map, 0, len(certifications))
	for _, certification := range certifications {
		progress, err := cc.Completion.CertificationProgress(userID, certification)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not compute progress",
			})
		}
		isEnrolled, err := cc.Enrollment.IsEnrolled(userID, certification.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}

		result = append(result, fiber.Map{
			"id":                 certification.ID,
			"title":              certification.Title,
			"description":        certification.Description,
			"certification_type": certification.CertificationType,
			"thumbnail_url":      certification.ThumbnailURL,
			"progress":           progress,
			"is_enrolled":        isEnrolled,
		})
	}

	return c.JSON(fiber.Map{
		"certifications": result,
	})
}

func (cc *CatalogController) GetCertificationDetails(c *fiber.Ctx) error {
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

	certification, err := cc.Hierarchy.CertificationByID(uint(certificationID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Certification not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	courses, err := cc.Hierarchy.ActiveCourses(certification.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	courseData := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		progress, err := cc.Completion.CourseProgress(userID, course)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not compute progress",
			})
		}
		modules, err := cc.Hierarchy.ActiveModules(course.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}

		courseData = append(courseData, fiber.Map{
			"id":            course.ID,
			"title":         course.Title,
			"description":   course.Description,
			"thumbnail_url": course.ThumbnailURL,
			"progress":      progress,
			"is_complete":   progress >= services.CourseCompletionPercent,
			"total_modules": len(modules),
		})
	}

	overallProgress, err := cc.Completion.CertificationProgress(userID, certification)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute progress",
		})
	}
	isComplete, err := cc.Completion.CertificationIsComplete(userID, certification)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute progress",
		})
	}
	isEnrolled, err := cc.Enrollment.IsEnrolled(userID, certification.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(fiber.Map{
		"certification": fiber.Map{
			"id":                 certification.ID,
			"title":              certification.Title,
			"description":        certification.Description,
			"certification_type": certification.CertificationType,
			"thumbnail_url":      certification.ThumbnailURL,
		},
		"courses":          courseData,
		"overall_progress": overallProgress,
		"is_complete":      isComplete,
		"is_enrolled":      isEnrolled,
	})
}

func (cc *CatalogController) GetCourseDetails(c *fiber.Ctx) error {
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

	course, err := cc.Hierarchy.CourseByID(uint(courseID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	modules, err := cc.Hierarchy.ActiveModules(course.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	moduleData := make([]fiber.Map, 0, len(modules))
	for _, module := range modules {
		entry := fiber.Map{
			"id":             module.ID,
			"title":          module.Title,
			"module_type":    module.ModuleType,
			"video_duration": module.VideoDuration,
			"is_completed":   false,
		}
		if progress, err := cc.Completion.Ledger.Get(userID, module.ID); err == nil {
			entry["is_completed"] = progress.IsCompleted
			entry["progress_percentage"] = services.ModulePercentage(progress, module)
		}
		moduleData = append(moduleData, entry)
	}

	courseProgress, err := cc.Completion.CourseProgress(userID, course)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute progress",
		})
	}

	return c.JSON(fiber.Map{
		"course": fiber.Map{
			"id":            course.ID,
			"title":         course.Title,
			"description":   course.Description,
			"thumbnail_url": course.ThumbnailURL,
		},
		"modules":            moduleData,
		"course_progress":    courseProgress,
		"is_course_complete": courseProgress >= services.CourseCompletionPercent,
	})
}

// --- Instructor CRUD ---

func (cc *CatalogController) CreateCertification(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	type CertificationInput struct {
		Title             string `json:"title" validate:"required,max=200"`
		Description       string `json:"description"`
		CertificationType string `json:"certification_type" validate:"omitempty,oneof=professional specialization"`
		ThumbnailURL      string `json:"thumbnail_url"`
	}

	var input CertificationInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	certification := models.Certification{
		Title:             input.Title,
		Description:       input.Description,
		CertificationType: input.CertificationType,
		ThumbnailURL:      input.ThumbnailURL,
		CreatedBy:         userID,
		IsActive:          true,
	}
	if certification.CertificationType == "" {
		certification.CertificationType = models.CertificationProfessional
	}

	if err := cc.DB.Create(&certification).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create certification",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Certification created",
		"certification": certification,
	})
}

func (cc *CatalogController) UpdateCertification(c *fiber.Ctx) error {
	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	var input struct {
		Title             string `json:"title"`
		Description       string `json:"description"`
		CertificationType string `json:"certification_type"`
		ThumbnailURL      string `json:"thumbnail_url"`
		IsActive          *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var certification models.Certification
	if err := cc.DB.First(&certification, certificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Certification not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.Title != "" {
		certification.Title = input.Title
	}
	if input.Description != "" {
		certification.Description = input.Description
	}
	if input.CertificationType != "" {
		certification.CertificationType = input.CertificationType
	}
	if input.ThumbnailURL != "" {
		certification.ThumbnailURL = input.ThumbnailURL
	}
	if input.IsActive != nil {
		certification.IsActive = *input.IsActive
	}

	if err := cc.DB.Save(&certification).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update certification",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Certification updated",
		"certification": certification,
	})
}

func (cc *CatalogController) DeleteCertification(c *fiber.Ctx) error {
	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	res := cc.DB.Delete(&models.Certification{}, certificationID)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete certification",
		})
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Certification not found")
	}

	return c.JSON(fiber.Map{
		"message": "Certification deleted",
	})
}

func (cc *CatalogController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	type CourseInput struct {
		CertificationID *uint  `json:"certification_id"`
		Title           string `json:"title" validate:"required,max=200"`
		Description     string `json:"description"`
		ThumbnailURL    string `json:"thumbnail_url"`
		SequenceOrder   int    `json:"sequence_order"`
	}

	var input CourseInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	if input.CertificationID != nil {
		var certification models.Certification
		if err := cc.DB.First(&certification, *input.CertificationID).Error; err != nil {
			return utils.NotFound(c, "Certification not found")
		}
	}

	course := models.Course{
		CertificationID: input.CertificationID,
		Title:           input.Title,
		Description:     input.Description,
		ThumbnailURL:    input.ThumbnailURL,
		SequenceOrder:   input.SequenceOrder,
		CreatedBy:       userID,
		IsActive:        true,
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

func (cc *CatalogController) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		ThumbnailURL  string `json:"thumbnail_url"`
		SequenceOrder *int   `json:"sequence_order"`
		IsActive      *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.Title != "" {
		course.Title = input.Title
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.ThumbnailURL != "" {
		course.ThumbnailURL = input.ThumbnailURL
	}
	if input.SequenceOrder != nil {
		course.SequenceOrder = *input.SequenceOrder
	}
	if input.IsActive != nil {
		course.IsActive = *input.IsActive
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course updated",
		"course":  course,
	})
}

func (cc *CatalogController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	res := cc.DB.Delete(&models.Course{}, courseID)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete course",
		})
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Course not found")
	}

	return c.JSON(fiber.Map{
		"message": "Course deleted",
	})
}

func (cc *CatalogController) CreateModule(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	type ModuleInput struct {
		Title         string `json:"title" validate:"required,max=200"`
		ModuleType    string `json:"module_type" validate:"required,oneof=text picture video text_picture"`
		SequenceOrder int    `json:"sequence_order"`
		TextContent   string `json:"text_content"`
		PictureURL    string `json:"picture_url"`
		VideoURL      string `json:"video_url"`
		VideoDuration int    `json:"video_duration" validate:"min=0"`
	}

	var input ModuleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	module := models.Module{
		CourseID:      course.ID,
		Title:         input.Title,
		ModuleType:    input.ModuleType,
		SequenceOrder: input.SequenceOrder,
		TextContent:   input.TextContent,
		PictureURL:    input.PictureURL,
		VideoURL:      input.VideoURL,
		VideoDuration: input.VideoDuration,
		IsActive:      true,
	}

	if err := cc.DB.Create(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create module",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Module created",
		"module":  module,
	})
}

func (cc *CatalogController) UpdateModule(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	var input struct {
		Title         string `json:"title"`
		ModuleType    string `json:"module_type"`
		SequenceOrder *int   `json:"sequence_order"`
		TextContent   string `json:"text_content"`
		PictureURL    string `json:"picture_url"`
		VideoURL      string `json:"video_url"`
		VideoDuration *int   `json:"video_duration"`
		IsActive      *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.ModuleType != "" && !models.ValidModuleType(input.ModuleType) {
		return utils.BadRequest(c, "Invalid module type")
	}

	var module models.Module
	if err := cc.DB.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.Title != "" {
		module.Title = input.Title
	}
	if input.ModuleType != "" {
		module.ModuleType = input.ModuleType
	}
	if input.SequenceOrder != nil {
		module.SequenceOrder = *input.SequenceOrder
	}
	if input.TextContent != "" {
		module.TextContent = input.TextContent
	}
	if input.PictureURL != "" {
		module.PictureURL = input.PictureURL
	}
	if input.VideoURL != "" {
		module.VideoURL = input.VideoURL
	}
	if input.VideoDuration != nil {
		module.VideoDuration = *input.VideoDuration
	}
	if input.IsActive != nil {
		module.IsActive = *input.IsActive
	}

	if err := cc.DB.Save(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update module",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Module updated",
		"module":  module,
	})
}

func (cc *CatalogController) DeleteModule(c *fiber.Ctx) error {
	moduleID, err := strconv.Atoi(c.Params("moduleId"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	res := cc.DB.Delete(&models.Module{}, moduleID)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete module",
		})
	}
	if res.RowsAffected == 0 {
		return utils.NotFound(c, "Module not found")
	}

	return c.JSON(fiber.Map{
		"message": "Module deleted",
	})
}
