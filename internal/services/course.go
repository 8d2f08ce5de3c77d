package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lms-backend/internal/models"
)

type courseStore interface {
	Create(ctx context.Context, c *models.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Course, int, error)
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateLesson(ctx context.Context, l *models.Lesson) error
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	ListLessons(ctx context.Context, courseID uuid.UUID) ([]*models.Lesson, error)
	UpdateLesson(ctx context.Context, l *models.Lesson) error
	DeleteLesson(ctx context.Context, id uuid.UUID) error
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSubAdmin
}

type CourseService struct {
	courses courseStore
	files   FileRemover
}

func NewCourseService(courses courseStore, files FileRemover) *CourseService {
	return &CourseService{courses: courses, files: files}
}

func (s *CourseService) CreateCourse(ctx context.Context, actor Actor, req models.CourseRequest) (*models.Course, error) {
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		InstructorID: req.InstructorID,
		IsPublished:  req.IsPublished,
	}
	// Instructors always own what they create.
	if !actor.IsStaff() {
		course.InstructorID = &actor.UserID
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

// GetCourse hides unpublished courses from everyone but their owner and staff.
func (s *CourseService) GetCourse(ctx context.Context, actor Actor, id uuid.UUID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, courseLookupErr(err)
	}
	if !course.IsPublished && !canManage(actor, course) {
		return nil, &NotFoundError{Message: "Course not found"}
	}
	return course, nil
}

func (s *CourseService) ListCourses(ctx context.Context, actor Actor, page, limit int) ([]*models.Course, int, error) {
	page, limit = normalizePage(page, limit)
	courses, total, err := s.courses.List(ctx, !actor.IsStaff(), limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, actor Actor, id uuid.UUID, req models.CourseRequest) (*models.Course, error) {
	if err := validateCourse(req); err != nil {
		return nil, err
	}

	course, err := s.manageableCourse(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.IsPublished = req.IsPublished
	if actor.IsStaff() {
		course.InstructorID = req.InstructorID
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

// DeleteCourse removes the course and the files its lessons still reference.
func (s *CourseService) DeleteCourse(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.manageableCourse(ctx, actor, id); err != nil {
		return err
	}

	lessons, err := s.courses.ListLessons(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list lessons: %w", err)
	}
	for _, l := range lessons {
		ReconcileContentFiles(ctx, s.files, derefString(l.Description), "")
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

func (s *CourseService) CreateLesson(ctx context.Context, actor Actor, courseID uuid.UUID, req models.LessonRequest) (*models.Lesson, error) {
	if err := validateLesson(req); err != nil {
		return nil, err
	}
	if _, err := s.manageableCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:    courseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := s.courses.CreateLesson(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	return lesson, nil
}

func (s *CourseService) ListLessons(ctx context.Context, actor Actor, courseID uuid.UUID) ([]*models.Lesson, error) {
	if _, err := s.GetCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.courses.ListLessons(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

func (s *CourseService) GetLesson(ctx context.Context, actor Actor, id uuid.UUID) (*models.Lesson, error) {
	lesson, err := s.courses.GetLesson(ctx, id)
	if err != nil {
		return nil, lessonLookupErr(err)
	}
	if _, err := s.GetCourse(ctx, actor, lesson.CourseID); err != nil {
		return nil, &NotFoundError{Message: "Lesson not found"}
	}
	return lesson, nil
}

// UpdateLesson drops files that the new description no longer references
// before the new description is written.
func (s *CourseService) UpdateLesson(ctx context.Context, actor Actor, id uuid.UUID, req models.LessonRequest) (*models.Lesson, error) {
	if err := validateLesson(req); err != nil {
		return nil, err
	}

	lesson, err := s.manageableLesson(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ReconcileContentFiles(ctx, s.files, derefString(lesson.Description), derefString(req.Description))

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = req.Description
	lesson.SortOrder = req.SortOrder
	if err := s.courses.UpdateLesson(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}
	return lesson, nil
}

func (s *CourseService) DeleteLesson(ctx context.Context, actor Actor, id uuid.UUID) error {
	lesson, err := s.manageableLesson(ctx, actor, id)
	if err != nil {
		return err
	}

	ReconcileContentFiles(ctx, s.files, derefString(lesson.Description), "")

	if err := s.courses.DeleteLesson(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

func (s *CourseService) manageableCourse(ctx context.Context, actor Actor, id uuid.UUID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, courseLookupErr(err)
	}
	if !canManage(actor, course) {
		return nil, &ForbiddenError{Message: "You cannot modify this course"}
	}
	return course, nil
}

func (s *CourseService) manageableLesson(ctx context.Context, actor Actor, id uuid.UUID) (*models.Lesson, error) {
	lesson, err := s.courses.GetLesson(ctx, id)
	if err != nil {
		return nil, lessonLookupErr(err)
	}
	if _, err := s.manageableCourse(ctx, actor, lesson.CourseID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func canManage(actor Actor, course *models.Course) bool {
	if actor.IsStaff() {
		return true
	}
	return actor.Role == models.RoleInstructor && course.InstructorID != nil && *course.InstructorID == actor.UserID
}

func validateCourse(req models.CourseRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return &ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}
	return nil
}

func validateLesson(req models.LessonRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if req.SortOrder < 0 {
		fields["sort_order"] = "Sort order must not be negative"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func courseLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "Course not found"}
	}
	return fmt.Errorf("failed to load course: %w", err)
}

func lessonLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: "Lesson not found"}
	}
	return fmt.Errorf("failed to load lesson: %w", err)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
