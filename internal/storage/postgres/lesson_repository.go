package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
)

const lessonColumns = `id, subject, price, location, spaces, description, image`

type lessonRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (domain.Lesson, error) {
	var l domain.Lesson
	err := row.Scan(&l.ID, &l.Subject, &l.Price, &l.Location, &l.Spaces, &l.Description, &l.Image)
	return l, err
}

func (r *lessonRepository) List(ctx context.Context) ([]domain.Lesson, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+lessonColumns+` FROM lessons ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

// Search ищет экранированный текст запроса оператором ~* (регистронезависимый regex)
// и, если запрос числовой, добавляет уроки с совпадающей ценой или количеством мест.
func (r *lessonRepository) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Lesson, error) {
	if q.IsEmpty() {
		return make([]domain.Lesson, 0), nil
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	number := sql.NullFloat64{Float64: q.Number, Valid: q.Numeric}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons
		WHERE subject ~* $1
		   OR description ~* $1
		   OR location ~* $1
		   OR ($2::double precision IS NOT NULL AND (price = $2::double precision OR spaces = $2::double precision))
		ORDER BY seq ASC
	`, q.Pattern(), number)
	if err != nil {
		return nil, fmt.Errorf("search lessons: %w", err)
	}
	defer rows.Close()

	return collectLessons(rows)
}

func (r *lessonRepository) Create(ctx context.Context, lesson domain.Lesson) (domain.Lesson, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if err := insertLesson(ctx, r.db, lesson); err != nil {
		return domain.Lesson{}, err
	}
	return lesson, nil
}

// SeedIfEmpty вставляет уроки в одной транзакции, только если таблица пуста.
func (r *lessonRepository) SeedIfEmpty(ctx context.Context, lessons []domain.Lesson) (inserted int, err error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Блокировка таблицы не даёт двум экземплярам засеять её одновременно.
	if _, err = tx.ExecContext(ctx, `LOCK TABLE lessons IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("lock lessons: %w", err)
	}

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	if count > 0 {
		err = tx.Commit()
		return 0, err
	}

	for _, lesson := range lessons {
		lesson.ID = uuid.NewString()
		if err = insertLesson(ctx, tx, lesson); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed lessons: %w", err)
	}
	return len(lessons), nil
}

// Update обновляет только переданные поля. Идентификатор сначала ищется
// в каноническом UUID-формате, затем как исходная строка.
func (r *lessonRepository) Update(ctx context.Context, id string, patch domain.LessonPatch) (domain.Lesson, error) {
	assignments, args := patchAssignments(patch)
	if len(assignments) == 0 {
		return domain.Lesson{}, domain.ErrEmptyPatch
	}

	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(
		`UPDATE lessons SET %s WHERE id = $%d RETURNING `+lessonColumns,
		strings.Join(assignments, ", "), len(args)+1,
	)

	for _, candidate := range resolveLessonID(id) {
		lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, append(args, candidate)...))
		if err == nil {
			return lesson, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.Lesson{}, fmt.Errorf("update lesson: %w", err)
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

// Get ищет урок по тем же вариантам id, что и Update.
func (r *lessonRepository) Get(ctx context.Context, id string) (domain.Lesson, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	for _, candidate := range resolveLessonID(id) {
		lesson, err := scanLesson(r.db.QueryRowContext(ctx, query, candidate))
		if err == nil {
			return lesson, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.Lesson{}, fmt.Errorf("get lesson: %w", err)
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func (r *lessonRepository) Count(ctx context.Context) (int, error) {
	return countRows(ctx, r.db, "lessons")
}

// resolveLessonID возвращает варианты id для поиска: нативный UUID, затем сырая строка.
func resolveLessonID(id string) []string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return []string{id}
	}
	canonical := parsed.String()
	if canonical == id {
		return []string{id}
	}
	return []string{canonical, id}
}

func patchAssignments(p domain.LessonPatch) ([]string, []any) {
	var (
		assignments []string
		args        []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Subject != nil {
		add("subject", *p.Subject)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.Spaces != nil {
		add("spaces", *p.Spaces)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Image != nil {
		add("image", *p.Image)
	}
	return assignments, args
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertLesson(ctx context.Context, db execer, l domain.Lesson) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO lessons (`+lessonColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, l.ID, l.Subject, l.Price, l.Location, l.Spaces, l.Description, l.Image)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	return nil
}

func collectLessons(rows *sql.Rows) ([]domain.Lesson, error) {
	lessons := make([]domain.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson row: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson rows: %w", err)
	}
	return lessons, nil
}

func countRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	ctx, cancel := withOpTimeout(ctx)
	defer cancel()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

var _ domain.LessonRepository = (*lessonRepository)(nil)
