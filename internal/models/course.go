package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InstructorID *uuid.UUID `json:"instructor_id"`
	IsPublished  bool       `json:"is_published"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Lesson struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"` // content-block JSON
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InstructorProfile struct {
	UserID       uuid.UUID `json:"user_id"`
	Headline     string    `json:"headline"`
	Introduction *string   `json:"introduction"` // content-block JSON
	UpdatedAt    time.Time `json:"updated_at"`
}

type CourseRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InstructorID *uuid.UUID `json:"instructor_id"`
	IsPublished  bool       `json:"is_published"`
}

type LessonRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	SortOrder   int     `json:"sort_order"`
}

type InstructorProfileRequest struct {
	Headline     string  `json:"headline"`
	Introduction *string `json:"introduction"`
}
