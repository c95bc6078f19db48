package handlers

import (
	"context"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/internal/store"
)

type PipelineRunner interface {
	Run(ctx context.Context, researchJobID string, opts calendar.PipelineOptions) (*calendar.PipelineResult, error)
}

type RunReader interface {
	GetLatestRun(ctx context.Context, researchJobID, weekStart string) (*store.StoredRun, error)
	ListRuns(ctx context.Context, researchJobID string) ([]store.RunSummary, error)
	GetSlot(ctx context.Context, slotID string) (*store.StoredSlot, error)
	GetInspirationPosts(ctx context.Context, slotID string) ([]calendar.Post, error)
}

type DraftWriter interface {
	Write(ctx context.Context, req calendar.DraftRequest) (*calendar.DraftContent, error)
}

type DraftStore interface {
	InsertDraft(ctx context.Context, slotID string, content *calendar.DraftContent) (*calendar.ContentDraft, error)
	ListDrafts(ctx context.Context, slotID string) ([]calendar.ContentDraft, error)
}
