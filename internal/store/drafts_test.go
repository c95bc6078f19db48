package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"brandforge/api_calendar/internal/calendar"
)

func newDraftStore(t *testing.T) (*DraftStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewDraftStore(db), mock, func() { db.Close() }
}

func TestInsertDraftAssignsNextVersion(t *testing.T) {
	store, mock, cleanup := newDraftStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("COALESCE\\(MAX\\(version\\), 0\\) \\+ 1").
		WithArgs("slot-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
	mock.ExpectQuery("INSERT INTO calendar.content_drafts").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	draft, err := store.InsertDraft(context.Background(), "slot-1", &calendar.DraftContent{
		Hook:     "h",
		Script:   "s",
		Caption:  "c",
		Hashtags: []string{"#one"},
	})
	if err != nil {
		t.Fatalf("InsertDraft returned error: %v", err)
	}
	if draft.Version != 3 {
		t.Fatalf("expected version 3, got %d", draft.Version)
	}
	if draft.ID == "" {
		t.Fatal("expected generated draft id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertDraftRollsBackOnConflict(t *testing.T) {
	store, mock, cleanup := newDraftStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("COALESCE\\(MAX\\(version\\), 0\\) \\+ 1").
		WithArgs("slot-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO calendar.content_drafts").
		WillReturnError(errors.New("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	_, err := store.InsertDraft(context.Background(), "slot-1", &calendar.DraftContent{Caption: "c"})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListDraftsNewestFirst(t *testing.T) {
	store, mock, cleanup := newDraftStore(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{
		"id", "slot_id", "version", "hook", "script", "caption", "hashtags", "status", "created_at",
	}).
		AddRow("d2", "slot-1", 2, "h2", "s2", "c2", []byte(`{"#two"}`), "draft", time.Now()).
		AddRow("d1", "slot-1", 1, nil, nil, "c1", []byte(`{}`), "draft", time.Now())

	mock.ExpectQuery("ORDER BY version DESC").
		WithArgs("slot-1").
		WillReturnRows(rows)

	drafts, err := store.ListDrafts(context.Background(), "slot-1")
	if err != nil {
		t.Fatalf("ListDrafts returned error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	if drafts[0].Version != 2 {
		t.Fatalf("expected newest version first, got %d", drafts[0].Version)
	}
	if drafts[1].Hook != "" {
		t.Fatalf("expected empty hook for null column, got %q", drafts[1].Hook)
	}
	if len(drafts[1].Hashtags) != 0 {
		t.Fatalf("expected empty hashtags, got %v", drafts[1].Hashtags)
	}
}
