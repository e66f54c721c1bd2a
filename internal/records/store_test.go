package records

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "records.db"), nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndListLeads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddLead(ctx, "ada@example.com", "Ada", "asked about consulting")
	if err != nil {
		t.Fatalf("AddLead() error: %v", err)
	}
	second, err := s.AddLead(ctx, "grace@example.com", "", "")
	if err != nil {
		t.Fatalf("AddLead() error: %v", err)
	}

	leads, err := s.ListLeads(ctx, 0)
	if err != nil {
		t.Fatalf("ListLeads() error: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("got %d leads, want 2", len(leads))
	}

	// Most recent first.
	if leads[0].ID != second.ID {
		t.Errorf("leads[0].ID = %s, want %s", leads[0].ID, second.ID)
	}
	if leads[1].ID != first.ID {
		t.Errorf("leads[1].ID = %s, want %s", leads[1].ID, first.ID)
	}

	if leads[1].Email != "ada@example.com" || leads[1].Name != "Ada" || leads[1].Notes != "asked about consulting" {
		t.Errorf("lead fields = %+v", leads[1])
	}
	if leads[1].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestListLeadsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.AddLead(ctx, "x@example.com", "", ""); err != nil {
			t.Fatalf("AddLead() error: %v", err)
		}
	}

	leads, err := s.ListLeads(ctx, 3)
	if err != nil {
		t.Fatalf("ListLeads() error: %v", err)
	}
	if len(leads) != 3 {
		t.Errorf("got %d leads, want 3", len(leads))
	}
}

func TestAddLeadRequiresEmail(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddLead(context.Background(), "", "Ada", ""); err == nil {
		t.Error("expected error for empty email")
	}
}

func TestAddAndListUnknownQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddUnknownQuestion(ctx, "What's your favorite color?"); err != nil {
		t.Fatalf("AddUnknownQuestion() error: %v", err)
	}
	latest, err := s.AddUnknownQuestion(ctx, "Do you hold a patent?")
	if err != nil {
		t.Fatalf("AddUnknownQuestion() error: %v", err)
	}

	questions, err := s.ListUnknownQuestions(ctx, 0)
	if err != nil {
		t.Fatalf("ListUnknownQuestions() error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].ID != latest.ID {
		t.Errorf("questions[0] = %q, want most recent first", questions[0].Question)
	}
}

func TestAddUnknownQuestionRequiresText(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddUnknownQuestion(context.Background(), ""); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestEmptyListings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	leads, err := s.ListLeads(ctx, 0)
	if err != nil {
		t.Fatalf("ListLeads() error: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("got %d leads, want 0", len(leads))
	}

	questions, err := s.ListUnknownQuestions(ctx, 0)
	if err != nil {
		t.Fatalf("ListUnknownQuestions() error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions, want 0", len(questions))
	}
}
