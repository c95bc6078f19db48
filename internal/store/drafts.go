package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"brandforge/api_calendar/internal/calendar"
)

// DraftStore persists versioned content drafts per slot.
type DraftStore struct {
	db *sql.DB
}

func NewDraftStore(db *sql.DB) *DraftStore {
	return &DraftStore{db: db}
}

// InsertDraft stores a new draft for a slot at the next version number. The
// unique (slot_id, version) constraint catches concurrent writers.
func (s *DraftStore) InsertDraft(ctx context.Context, slotID string, content *calendar.DraftContent) (*calendar.ContentDraft, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin draft insert: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM calendar.content_drafts
		WHERE slot_id = $1`,
		slotID).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("next draft version: %w", err)
	}

	draft := &calendar.ContentDraft{
		ID:       uuid.New().String(),
		SlotID:   slotID,
		Version:  version,
		Hook:     content.Hook,
		Script:   content.Script,
		Caption:  content.Caption,
		Hashtags: content.Hashtags,
		Status:   "draft",
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO calendar.content_drafts
			(id, slot_id, version, hook, script, caption, hashtags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		draft.ID, draft.SlotID, draft.Version, draft.Hook, draft.Script, draft.Caption,
		pq.Array(draft.Hashtags), draft.Status).Scan(&draft.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit draft insert: %w", err)
	}
	return draft, nil
}

// ListDrafts returns all drafts for a slot, newest version first.
func (s *DraftStore) ListDrafts(ctx context.Context, slotID string) ([]calendar.ContentDraft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slot_id, version, hook, script, caption, hashtags, status, created_at
		FROM calendar.content_drafts
		WHERE slot_id = $1
		ORDER BY version DESC`,
		slotID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	drafts := []calendar.ContentDraft{}
	for rows.Next() {
		var draft calendar.ContentDraft
		var hook, script, caption sql.NullString
		if err := rows.Scan(&draft.ID, &draft.SlotID, &draft.Version, &hook, &script, &caption,
			pq.Array(&draft.Hashtags), &draft.Status, &draft.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		draft.Hook = hook.String
		draft.Script = script.String
		draft.Caption = caption.String
		if draft.Hashtags == nil {
			draft.Hashtags = []string{}
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}
