package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/learnlingo-api/internal/catalog"
	"github.com/noah-isme/learnlingo-api/internal/models"
)

const teacherColumns = "id, name, surname, languages, levels, price_per_hour, rating, lessons_done, conditions, experience, lesson_info, avatar_url"

const reviewColumns = "teacher_id, position, reviewer_name, reviewer_rating, comment, reviewed_at"

type teacherRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Surname      string         `db:"surname"`
	Languages    pq.StringArray `db:"languages"`
	Levels       pq.StringArray `db:"levels"`
	PricePerHour float64        `db:"price_per_hour"`
	Rating       float64        `db:"rating"`
	LessonsDone  int            `db:"lessons_done"`
	Conditions   pq.StringArray `db:"conditions"`
	Experience   string         `db:"experience"`
	LessonInfo   string         `db:"lesson_info"`
	AvatarURL    *string        `db:"avatar_url"`
}

func (r teacherRow) model() models.Teacher {
	return models.Teacher{
		ID:           r.ID,
		Name:         r.Name,
		Surname:      r.Surname,
		Languages:    nonNil(r.Languages),
		Levels:       nonNil(r.Levels),
		PricePerHour: r.PricePerHour,
		Rating:       r.Rating,
		LessonsDone:  r.LessonsDone,
		Reviews:      []models.Review{},
		Conditions:   nonNil(r.Conditions),
		Experience:   r.Experience,
		LessonInfo:   r.LessonInfo,
		AvatarURL:    r.AvatarURL,
	}
}

type reviewRow struct {
	TeacherID string `db:"teacher_id"`
	Position  int    `db:"position"`
	models.Review
}

// TeacherRepository manages persistence for teachers and their reviews.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns the whole catalog in insertion order with reviews attached.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	var rows []teacherRow
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY created_at, id", teacherColumns)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	var reviews []reviewRow
	reviewQuery := fmt.Sprintf("SELECT %s FROM teacher_reviews ORDER BY teacher_id, position", reviewColumns)
	if err := r.db.SelectContext(ctx, &reviews, reviewQuery); err != nil {
		return nil, fmt.Errorf("list teacher reviews: %w", err)
	}

	byTeacher := make(map[string][]models.Review, len(rows))
	for _, rv := range reviews {
		byTeacher[rv.TeacherID] = append(byTeacher[rv.TeacherID], rv.Review)
	}

	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		t := row.model()
		if rv, ok := byTeacher[t.ID]; ok {
			t.Reviews = rv
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

// FindByID fetches a teacher with reviews. Returns sql.ErrNoRows when absent.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findByID(ctx, r.db, id, false)
}

// AppendReview stores review as the teacher's last review and recomputes the
// rating in one transaction.
func (r *TeacherRepository) AppendReview(ctx context.Context, teacherID string, review models.Review) (*models.Teacher, error) {
	return r.withTeacherLocked(ctx, teacherID, func(tx *sqlx.Tx, teacher *models.Teacher) error {
		const insert = `INSERT INTO teacher_reviews (teacher_id, position, reviewer_name, reviewer_rating, comment, reviewed_at) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, insert, teacherID, len(teacher.Reviews), review.ReviewerName, review.ReviewerRating, review.Comment, review.Date); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		teacher.Reviews = append(teacher.Reviews, review)
		return nil
	})
}

// DeleteReview removes the review at index and recomputes the rating.
// Returns sql.ErrNoRows when the teacher or the index does not exist.
func (r *TeacherRepository) DeleteReview(ctx context.Context, teacherID string, index int) (*models.Teacher, error) {
	return r.withTeacherLocked(ctx, teacherID, func(tx *sqlx.Tx, teacher *models.Teacher) error {
		if index < 0 || index >= len(teacher.Reviews) {
			return sql.ErrNoRows
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_reviews WHERE teacher_id = $1 AND position = $2`, teacherID, index); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE teacher_reviews SET position = position - 1 WHERE teacher_id = $1 AND position > $2`, teacherID, index); err != nil {
			return fmt.Errorf("shift reviews: %w", err)
		}
		teacher.Reviews = append(teacher.Reviews[:index], teacher.Reviews[index+1:]...)
		return nil
	})
}

func (r *TeacherRepository) withTeacherLocked(ctx context.Context, teacherID string, mutate func(tx *sqlx.Tx, teacher *models.Teacher) error) (result *models.Teacher, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin review tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	teacher, err := r.findByID(ctx, tx, teacherID, true)
	if err != nil {
		return nil, err
	}
	if err = mutate(tx, teacher); err != nil {
		return nil, err
	}

	teacher.Rating = catalog.AverageRating(teacher.Reviews)
	if _, err = tx.ExecContext(ctx, `UPDATE teachers SET rating = $2 WHERE id = $1`, teacherID, teacher.Rating); err != nil {
		return nil, fmt.Errorf("update teacher rating: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit review tx: %w", err)
	}
	return teacher, nil
}

func (r *TeacherRepository) findByID(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var row teacherRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}

	var reviews []reviewRow
	reviewQuery := fmt.Sprintf("SELECT %s FROM teacher_reviews WHERE teacher_id = $1 ORDER BY position", reviewColumns)
	if err := sqlx.SelectContext(ctx, q, &reviews, reviewQuery, id); err != nil {
		return nil, fmt.Errorf("find teacher reviews: %w", err)
	}

	teacher := row.model()
	for _, rv := range reviews {
		teacher.Reviews = append(teacher.Reviews, rv.Review)
	}
	return &teacher, nil
}

func nonNil(values pq.StringArray) []string {
	if values == nil {
		return []string{}
	}
	return []string(values)
}
