package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lms-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

const courseColumns = `id, title, description, instructor_id, is_published, created_at, updated_at`

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.InstructorID, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	c.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO courses (id, title, description, instructor_id, is_published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, c.ID, c.Title, c.Description, c.InstructorID, c.IsPublished).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CourseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

func (r *CourseRepo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.Course, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM courses WHERE ($1 = FALSE OR is_published = TRUE)`, publishedOnly,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE ($1 = FALSE OR is_published = TRUE)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, publishedOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	return courses, total, rows.Err()
}

func (r *CourseRepo) Update(ctx context.Context, c *models.Course) error {
	return r.pool.QueryRow(ctx, `
		UPDATE courses
		SET title = $1, description = $2, instructor_id = $3, is_published = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, c.Title, c.Description, c.InstructorID, c.IsPublished, c.ID).Scan(&c.UpdatedAt)
}

func (r *CourseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM courses WHERE id = $1", id)
	return err
}

// Lessons

const lessonColumns = `id, course_id, title, description, sort_order, created_at, updated_at`

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.SortOrder, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *CourseRepo) CreateLesson(ctx context.Context, l *models.Lesson) error {
	l.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO lessons (id, course_id, title, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, l.ID, l.CourseID, l.Title, l.Description, l.SortOrder).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *CourseRepo) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	return scanLesson(r.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
}

func (r *CourseRepo) ListLessons(ctx context.Context, courseID uuid.UUID) ([]*models.Lesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons
		WHERE course_id = $1
		ORDER BY sort_order, created_at
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lessons := make([]*models.Lesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *CourseRepo) UpdateLesson(ctx context.Context, l *models.Lesson) error {
	return r.pool.QueryRow(ctx, `
		UPDATE lessons
		SET title = $1, description = $2, sort_order = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, l.Title, l.Description, l.SortOrder, l.ID).Scan(&l.UpdatedAt)
}

func (r *CourseRepo) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM lessons WHERE id = $1", id)
	return err
}
