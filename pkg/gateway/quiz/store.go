// Package quiz serves question sets from Postgres. The schema keeps
// questions in per-set ordered units; options live on the frontend until the
// question_options table lands.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSetNotFound = errors.New("quiz: question set not found")
	ErrNoQuestions = errors.New("quiz: no matching questions in set")
)

// DefaultQuestionTypes is the filter applied when the caller names none.
var DefaultQuestionTypes = []string{"Multiple choice"}

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	QuestionType  string   `json:"questionType"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	MaxLength     *int     `json:"maxLength,omitempty"`
}

type Set struct {
	QuestionSetID   string     `json:"questionSetId"`
	QuestionSetName string     `json:"questionSetName"`
	Questions       []Question `json:"questions"`
}

type SetSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("quiz: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// QuestionSet loads one set with its questions filtered to types. An empty
// filter means DefaultQuestionTypes.
func (s *Store) QuestionSet(ctx context.Context, setID string, types []string) (Set, error) {
	if len(types) == 0 {
		types = DefaultQuestionTypes
	}

	var set Set
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM question_sets WHERE id = $1`,
		setID,
	).Scan(&set.QuestionSetID, &set.QuestionSetName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Set{}, ErrSetNotFound
	}
	if err != nil {
		return Set{}, fmt.Errorf("quiz: load set: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT q.id, q.question, qt.name AS question_type
		 FROM questions q
		 INNER JOIN question_set_units qsu ON q.id = qsu.question_id
		 INNER JOIN question_types qt ON q.question_type_id = qt.id
		 WHERE qsu.question_set_id = $1
		   AND qt.name = ANY($2::text[])
		 ORDER BY qsu.order_num`,
		setID, types,
	)
	if err != nil {
		return Set{}, fmt.Errorf("quiz: load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, text, qType string
		if err := rows.Scan(&id, &text, &qType); err != nil {
			return Set{}, fmt.Errorf("quiz: scan question: %w", err)
		}
		set.Questions = append(set.Questions, mapQuestion(id, text, qType))
	}
	if err := rows.Err(); err != nil {
		return Set{}, fmt.Errorf("quiz: read questions: %w", err)
	}

	if len(set.Questions) == 0 {
		return Set{}, ErrNoQuestions
	}
	return set, nil
}

// AvailableSets lists the sets that contain at least one multiple-choice
// question.
func (s *Store) AvailableSets(ctx context.Context) ([]SetSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT qs.id, qs.name, COALESCE(qs.instruction, '') AS description,
		        COUNT(DISTINCT q.id) AS question_count
		 FROM question_sets qs
		 INNER JOIN question_set_units qsu ON qs.id = qsu.question_set_id
		 INNER JOIN questions q ON qsu.question_id = q.id
		 INNER JOIN question_types qt ON q.question_type_id = qt.id
		 WHERE qt.name = 'Multiple choice'
		 GROUP BY qs.id, qs.name, qs.instruction
		 HAVING COUNT(DISTINCT q.id) > 0
		 ORDER BY qs.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("quiz: list sets: %w", err)
	}
	defer rows.Close()

	var sets []SetSummary
	for rows.Next() {
		var summary SetSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.Description, &summary.QuestionCount); err != nil {
			return nil, fmt.Errorf("quiz: scan set: %w", err)
		}
		sets = append(sets, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quiz: read sets: %w", err)
	}
	return sets, nil
}

// ParseTypesFilter splits the comma-separated question_types query value.
func ParseTypesFilter(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// mapQuestion shapes one row for the frontend. Choice questions carry
// placeholder options until options are stored server side; essays carry a
// length budget instead.
func mapQuestion(id, text, qType string) Question {
	q := Question{ID: id, Text: text, QuestionType: qType}
	switch qType {
	case "Multiple choice", "True/False", "MCQ":
		q.Options = []string{"Option A", "Option B", "Option C", "Option D"}
		answer := 1
		q.CorrectAnswer = &answer
	case "Essay":
		maxLen := 1000
		q.MaxLength = &maxLen
	}
	return q
}
