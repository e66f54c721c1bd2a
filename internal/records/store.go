// Package records persists what the agent's tools capture: contact
// details from interested visitors and questions the agent could not
// answer.
package records

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Lead is a visitor who left contact details.
type Lead struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UnknownQuestion is a question the agent could not answer.
type UnknownQuestion struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages record persistence in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the records database at dbPath.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT,
			notes TEXT,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS unknown_questions (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at);
		CREATE INDEX IF NOT EXISTS idx_questions_created ON unknown_questions(created_at);
	`)
	return err
}

// AddLead stores a new lead and returns it with id and timestamp set.
func (s *Store) AddLead(ctx context.Context, email, name, notes string) (*Lead, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	lead := &Lead{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, email, name, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
		lead.ID.String(), lead.Email, lead.Name, lead.Notes, lead.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert lead: %w", err)
	}

	s.logger.Info("lead recorded", "id", lead.ID, "email", lead.Email)
	return lead, nil
}

// AddUnknownQuestion stores a question the agent could not answer.
func (s *Store) AddUnknownQuestion(ctx context.Context, question string) (*UnknownQuestion, error) {
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	q := &UnknownQuestion{
		ID:        uuid.New(),
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unknown_questions (id, question, created_at) VALUES (?, ?, ?)`,
		q.ID.String(), q.Question, q.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	s.logger.Info("unknown question recorded", "id", q.ID)
	return q, nil
}

// ListLeads returns up to limit leads, most recent first. limit <= 0
// means no limit.
func (s *Store) ListLeads(ctx context.Context, limit int) ([]*Lead, error) {
	query := `SELECT id, email, name, notes, created_at FROM leads ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		var l Lead
		var id, createdAt string
		var name, notes sql.NullString
		if err := rows.Scan(&id, &l.Email, &name, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		l.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse lead id %q: %w", id, err)
		}
		l.Name = name.String
		l.Notes = notes.String
		l.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse lead timestamp %q: %w", createdAt, err)
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}

// ListUnknownQuestions returns up to limit questions, most recent first.
// limit <= 0 means no limit.
func (s *Store) ListUnknownQuestions(ctx context.Context, limit int) ([]*UnknownQuestion, error) {
	query := `SELECT id, question, created_at FROM unknown_questions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []*UnknownQuestion
	for rows.Next() {
		var q UnknownQuestion
		var id, createdAt string
		if err := rows.Scan(&id, &q.Question, &createdAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse question id %q: %w", id, err)
		}
		q.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse question timestamp %q: %w", createdAt, err)
		}
		questions = append(questions, &q)
	}
	return questions, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
