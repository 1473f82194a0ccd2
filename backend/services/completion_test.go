package services

import (
	"testing"

	"project/backend/models"
	"project/backend/store"
	"project/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, utils.Migrate(db))
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *store.GormStore, *CompletionService) {
	t.Helper()
	db := newTestDB(t)
	st := store.NewGormStore(db)
	return db, st, NewCompletionService(st, st, st)
}

func createCourse(t *testing.T, db *gorm.DB, certificationID *uint) models.Course {
	t.Helper()
	course := models.Course{CertificationID: certificationID, Title: "Test Course", IsActive: true}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func createModule(t *testing.T, db *gorm.DB, courseID uint, moduleType string, videoDuration int) models.Module {
	t.Helper()
	module := models.Module{
		CourseID:      courseID,
		Title:         "Test Module",
		ModuleType:    moduleType,
		VideoDuration: videoDuration,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&module).Error)
	return module
}

func TestRecordVideoProgressBelowThreshold(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleVideo, 100)

	view, _, err := svc.RecordVideoProgress(1, module.ID, 84)
	require.NoError(t, err)
	assert.False(t, view.IsCompleted)
	assert.InDelta(t, 84.0, view.ProgressPercentage, 0.001)
}

func TestRecordVideoProgressAtThreshold(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleVideo, 100)

	view, _, err := svc.RecordVideoProgress(1, module.ID, 85)
	require.NoError(t, err)
	assert.True(t, view.IsCompleted)
	assert.Equal(t, 100.0, view.ProgressPercentage)
}

func TestRecordVideoProgressUnknownDurationNeverCompletes(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleVideo, 0)

	view, _, err := svc.RecordVideoProgress(1, module.ID, 999999)
	require.NoError(t, err)
	assert.False(t, view.IsCompleted)
	assert.Equal(t, 0.0, view.ProgressPercentage)
}

func TestRecordVideoProgressCompletionIsMonotonic(t *testing.T) {
	db, st, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleVideo, 100)

	_, _, err := svc.RecordVideoProgress(1, module.ID, 90)
	require.NoError(t, err)

	// A seek back to the start is stored, but completion never reverts.
	view, _, err := svc.RecordVideoProgress(1, module.ID, 10)
	require.NoError(t, err)
	assert.True(t, view.IsCompleted)
	assert.Equal(t, 100.0, view.ProgressPercentage)

	progress, err := st.Get(1, module.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, progress.VideoWatchTime)
	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.CompletedAt)
}

func TestRecordVideoProgressRejectsNonVideo(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleText, 0)

	_, _, err := svc.RecordVideoProgress(1, module.ID, 60)
	assert.ErrorIs(t, err, ErrInvalidModuleType)
}

func TestMarkCompleteRejectsVideo(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleVideo, 100)

	_, _, err := svc.MarkComplete(1, module.ID)
	assert.ErrorIs(t, err, ErrInvalidModuleType)
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	db, st, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleText, 0)

	first, _, err := svc.MarkComplete(1, module.ID)
	require.NoError(t, err)
	assert.True(t, first.IsCompleted)

	firstRow, err := st.Get(1, module.ID)
	require.NoError(t, err)
	require.NotNil(t, firstRow.CompletedAt)

	second, _, err := svc.MarkComplete(1, module.ID)
	require.NoError(t, err)
	assert.True(t, second.IsCompleted)

	var count int64
	require.NoError(t, db.Model(&models.ModuleProgress{}).
		Where("user_id = ? AND module_id = ?", 1, module.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	secondRow, err := st.Get(1, module.ID)
	require.NoError(t, err)
	require.NotNil(t, secondRow.CompletedAt)
	assert.True(t, firstRow.CompletedAt.Equal(*secondRow.CompletedAt))
}

func TestMarkCompleteUnknownModule(t *testing.T) {
	_, _, svc := newTestServices(t)

	_, _, err := svc.MarkComplete(1, 12345)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestModulePercentage(t *testing.T) {
	video := models.Module{ModuleType: models.ModuleVideo, VideoDuration: 200}

	assert.Equal(t, 100.0, ModulePercentage(models.ModuleProgress{IsCompleted: true}, video))
	assert.InDelta(t, 25.0, ModulePercentage(models.ModuleProgress{VideoWatchTime: 50}, video), 0.001)
	assert.Equal(t, 100.0, ModulePercentage(models.ModuleProgress{VideoWatchTime: 500}, video))

	text := models.Module{ModuleType: models.ModuleText}
	assert.Equal(t, 0.0, ModulePercentage(models.ModuleProgress{VideoWatchTime: 50}, text))

	unknown := models.Module{ModuleType: models.ModuleVideo, VideoDuration: 0}
	assert.Equal(t, 0.0, ModulePercentage(models.ModuleProgress{VideoWatchTime: 50}, unknown))
}

func TestCourseProgressEmptyCourse(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)

	progress, err := svc.CourseProgress(1, course)
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress)

	complete, err := svc.CourseIsComplete(1, course)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestCourseCompletionSlack(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)

	modules := make([]models.Module, 10)
	for i := range modules {
		modules[i] = createModule(t, db, course.ID, models.ModuleText, 0)
	}

	for i := 0; i < 8; i++ {
		_, _, err := svc.MarkComplete(1, modules[i].ID)
		require.NoError(t, err)
	}
	progress, err := svc.CourseProgress(1, course)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, progress, 0.001)
	complete, err := svc.CourseIsComplete(1, course)
	require.NoError(t, err)
	assert.False(t, complete)

	// The ninth module crosses the 90% line.
	_, _, err = svc.MarkComplete(1, modules[8].ID)
	require.NoError(t, err)
	progress, err = svc.CourseProgress(1, course)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, progress, 0.001)
	complete, err = svc.CourseIsComplete(1, course)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestCourseProgressIgnoresInactiveModules(t *testing.T) {
	db, _, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	active := createModule(t, db, course.ID, models.ModuleText, 0)
	inactive := createModule(t, db, course.ID, models.ModuleText, 0)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	_, _, err := svc.MarkComplete(1, active.ID)
	require.NoError(t, err)

	progress, err := svc.CourseProgress(1, course)
	require.NoError(t, err)
	assert.Equal(t, 100.0, progress)
}

func TestCertificationProgressRequiresEnrollment(t *testing.T) {
	db, st, svc := newTestServices(t)
	certification := models.Certification{Title: "Test Certification", IsActive: true}
	require.NoError(t, db.Create(&certification).Error)
	course := createCourse(t, db, &certification.ID)
	module := createModule(t, db, course.ID, models.ModuleText, 0)

	_, _, err := svc.MarkComplete(1, module.ID)
	require.NoError(t, err)

	// Module progress alone does not count without an enrollment row.
	progress, err := svc.CertificationProgress(1, certification)
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress)
	complete, err := svc.CertificationIsComplete(1, certification)
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = st.Create(1, certification.ID)
	require.NoError(t, err)

	progress, err = svc.CertificationProgress(1, certification)
	require.NoError(t, err)
	assert.Equal(t, 100.0, progress)
	complete, err = svc.CertificationIsComplete(1, certification)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestCertificationCompletionRequiresEveryCourse(t *testing.T) {
	db, st, svc := newTestServices(t)
	certification := models.Certification{Title: "Test Certification", IsActive: true}
	require.NoError(t, db.Create(&certification).Error)

	first := createCourse(t, db, &certification.ID)
	second := createCourse(t, db, &certification.ID)
	firstModule := createModule(t, db, first.ID, models.ModuleText, 0)
	createModule(t, db, second.ID, models.ModuleText, 0)

	_, err := st.Create(1, certification.ID)
	require.NoError(t, err)

	_, _, err = svc.MarkComplete(1, firstModule.ID)
	require.NoError(t, err)

	progress, err := svc.CertificationProgress(1, certification)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, progress, 0.001)

	complete, err := svc.CertificationIsComplete(1, certification)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestCertificationWithoutCoursesNeverCompletes(t *testing.T) {
	db, st, svc := newTestServices(t)
	certification := models.Certification{Title: "Empty Certification", IsActive: true}
	require.NoError(t, db.Create(&certification).Error)

	_, err := st.Create(1, certification.ID)
	require.NoError(t, err)

	progress, err := svc.CertificationProgress(1, certification)
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress)

	complete, err := svc.CertificationIsComplete(1, certification)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestTouchModuleUpdatesLastAccessed(t *testing.T) {
	db, st, svc := newTestServices(t)
	course := createCourse(t, db, nil)
	module := createModule(t, db, course.ID, models.ModuleText, 0)

	first, err := svc.TouchModule(1, module.ID)
	require.NoError(t, err)
	assert.False(t, first.IsCompleted)

	second, err := svc.TouchModule(1, module.ID)
	require.NoError(t, err)
	assert.False(t, second.LastAccessed.Before(first.LastAccessed))

	var count int64
	require.NoError(t, db.Model(&models.ModuleProgress{}).
		Where("user_id = ? AND module_id = ?", 1, module.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = st.Get(1, module.ID)
	require.NoError(t, err)
}
