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

type ProgressController struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Hierarchy  store.Hierarchy
	Completion *services.CompletionService
	Enrollment *services.EnrollmentService
}

func NewProgressController(db *gorm.DB, cfg *config.Config, hierarchy store.Hierarchy, completion *services.CompletionService, enrollment *services.EnrollmentService) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Hierarchy: hierarchy, Completion: completion, Enrollment: enrollment}
}

// GetModule godoc
// @Summary View a module
// @Description Returns the module content with the user's progress and the
// previous/next active modules of the course
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /modules/{id} [get]
func (pc *ProgressController) GetModule(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	module, err := pc.Hierarchy.ModuleByID(uint(moduleID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Module not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Viewing a module opens its ledger row and stamps last_accessed.
	progress, err := pc.Completion.TouchModule(userID, module.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not record module access",
		})
	}

	siblings, err := pc.Hierarchy.ActiveModules(module.CourseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var prevID, nextID *uint
	for i := range siblings {
		if siblings[i].ID != module.ID {
			continue
		}
		if i > 0 {
			prevID = &siblings[i-1].ID
		}
		if i < len(siblings)-1 {
			nextID = &siblings[i+1].ID
		}
		break
	}

	return c.JSON(fiber.Map{
		"module": fiber.Map{
			"id":             module.ID,
			"course_id":      module.CourseID,
			"title":          module.Title,
			"module_type":    module.ModuleType,
			"text_content":   module.TextContent,
			"picture_url":    module.PictureURL,
			"video_url":      module.VideoURL,
			"video_duration": module.VideoDuration,
		},
		"progress": fiber.Map{
			"is_completed":        progress.IsCompleted,
			"video_watch_time":    progress.VideoWatchTime,
			"progress_percentage": services.ModulePercentage(progress, module),
		},
		"prev_module_id": prevID,
		"next_module_id": nextID,
	})
}

// MarkModuleComplete marks a text/picture module as complete. Video modules
// complete only through watch time.
func (pc *ProgressController) MarkModuleComplete(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	view, module, err := pc.Completion.MarkComplete(userID, uint(moduleID))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "Module not found")
		case errors.Is(err, services.ErrInvalidModuleType):
			return utils.BadRequest(c, "Invalid module type")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update progress",
		})
	}

	courseProgress, isCourseComplete, err := pc.courseState(userID, module.CourseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute course progress",
		})
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"is_completed":       view.IsCompleted,
		"course_progress":    courseProgress,
		"is_course_complete": isCourseComplete,
	})
}

// UpdateVideoProgress stores a video heartbeat and reports the derived
// module and course state.
func (pc *ProgressController) UpdateVideoProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	moduleID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid module ID")
	}

	type VideoProgressInput struct {
		WatchTime *int `json:"watch_time" validate:"required,min=0"`
	}

	var input VideoProgressInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationError(c, errs)
	}

	view, module, err := pc.Completion.RecordVideoProgress(userID, uint(moduleID), *input.WatchTime)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "Module not found")
		case errors.Is(err, services.ErrInvalidModuleType):
			return utils.BadRequest(c, "Invalid module type")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update progress",
		})
	}

	courseProgress, isCourseComplete, err := pc.courseState(userID, module.CourseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute course progress",
		})
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"is_completed":        view.IsCompleted,
		"progress_percentage": view.ProgressPercentage,
		"course_progress":     courseProgress,
		"is_course_complete":  isCourseComplete,
	})
}

// GetCourseProgress godoc
// @Summary Course progress
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	course, err := pc.Hierarchy.CourseByID(uint(courseID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	progress, err := pc.Completion.CourseProgress(userID, course)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute course progress",
		})
	}

	return c.JSON(fiber.Map{
		"percentage":  progress,
		"is_complete": progress >= services.CourseCompletionPercent,
	})
}

// GetCertificationProgress godoc
// @Summary Certification progress
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /certifications/{id}/progress [get]
func (pc *ProgressController) GetCertificationProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	certificationID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid certification ID")
	}

	certification, err := pc.Hierarchy.CertificationByID(uint(certificationID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Certification not found")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	isEnrolled, err := pc.Enrollment.IsEnrolled(userID, certification.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	progress, err := pc.Completion.CertificationProgress(userID, certification)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute certification progress",
		})
	}
	isComplete, err := pc.Completion.CertificationIsComplete(userID, certification)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not compute certification progress",
		})
	}

	return c.JSON(fiber.Map{
		"percentage":  progress,
		"is_complete": isComplete,
		"is_enrolled": isEnrolled,
	})
}

func (pc *ProgressController) courseState(userID, courseID uint) (float64, bool, error) {
	course, err := pc.Hierarchy.CourseByID(courseID)
	if err != nil {
		return 0, false, err
	}
	progress, err := pc.Completion.CourseProgress(userID, course)
	if err != nil {
		return 0, false, err
	}
	return progress, progress >= services.CourseCompletionPercent, nil
}
