package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/m073med011/lms-api/internal/models"
	"github.com/m073med011/lms-api/pkg/tool"
	"github.com/m073med011/lms-api/pkg/types"
)

var ErrCourseNotFound = errors.New("course not found")

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type CreateCourseRequest struct {
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	Level         types.CourseLevel `json:"level"`
	DurationHours int               `json:"duration_hours"`
	PriceCents    int64             `json:"price_cents" binding:"required,gt=0"`
	IsPublished   bool              `json:"is_published"`
}

func (s *Service) CreateCourse(ctx context.Context, instructorID string, req *CreateCourseRequest) (*models.Course, error) {
	course := &models.Course{
		ID:            tool.GenerateUUIDV7(),
		Title:         req.Title,
		Slug:          Slugify(req.Title),
		Description:   req.Description,
		InstructorID:  instructorID,
		Category:      req.Category,
		Level:         req.Level,
		DurationHours: req.DurationHours,
		PriceCents:    req.PriceCents,
		IsPublished:   req.IsPublished,
	}
	if course.Level == "" {
		course.Level = types.CourseLevelBeginner
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *Service) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find course: %w", err)
	}
	return &course, nil
}

type ListCoursesRequest struct {
	Category string `form:"category"`
	Level    string `form:"level"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ListCoursesResponse struct {
	Total int64           `json:"total"`
	Items []models.Course `json:"items"`
}

// ListPublished pages over the public catalog. Unpublished courses are
// only visible to their instructor through GetCourse.
func (s *Service) ListPublished(ctx context.Context, req *ListCoursesRequest) (*ListCoursesResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&models.Course{}).Where("is_published = ?", true)
	if req.Category != "" {
		q = q.Where("category = ?", req.Category)
	}
	if req.Level != "" {
		q = q.Where("level = ?", req.Level)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	var items []models.Course
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &ListCoursesResponse{Total: total, Items: items}, nil
}

// CoursesOf returns the courses a student owns, newest grant first.
func (s *Service) CoursesOf(ctx context.Context, userID string) ([]models.Course, error) {
	var items []models.Course
	err := s.db.WithContext(ctx).Model(&models.Course{}).
		Joins("JOIN user_course uc ON uc.course_id = course.id").
		Where("uc.user_id = ?", userID).
		Order("course.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list owned courses: %w", err)
	}
	return items, nil
}

// StudentsOf returns the users enrolled in a course.
func (s *Service) StudentsOf(ctx context.Context, courseID string) ([]models.User, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	var items []models.User
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN course_enrollment ce ON ce.user_id = users.id").
		Where("ce.course_id = ?", courseID).
		Order("users.name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled students: %w", err)
	}
	return items, nil
}

// Slugify derives a URL slug from a course title: lowercase, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
