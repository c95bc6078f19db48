package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brandforge/api_calendar/pkg/logging"
)

// Run statuses as persisted.
const (
	RunStatusProcessing = "processing"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
)

// SnapshotReadiness summarizes how usable a research snapshot is for
// planning. Scored before the run starts; a low score warns, never blocks.
type SnapshotReadiness struct {
	Score     float64  `json:"score"`
	PostCount int      `json:"postCount"`
	Issues    []string `json:"issues,omitempty"`
}

// ContextBuilder aggregates stored research into the stage 1 input.
type ContextBuilder interface {
	ScoreSnapshotReadiness(ctx context.Context, researchJobID string) (SnapshotReadiness, error)
	BuildProcessorInput(ctx context.Context, researchJobID string) (*ProcessorInput, error)
}

// RunRecord is a persisted calendar run. CalendarBrief and ContentCalendar
// hold the full stage documents as raw JSON.
type RunRecord struct {
	ID              string
	ResearchJobID   string
	WeekStart       string
	Timezone        string
	DurationDays    int
	CalendarBrief   json.RawMessage
	ContentCalendar json.RawMessage
	Status          string
	Diagnostics     RunDiagnostics
	CreatedAt       time.Time
}

// SlotRecord is a persisted calendar slot. ProductionBrief and GenerationPlan
// are stored as raw JSON documents.
type SlotRecord struct {
	SlotID             string
	SlotIndex          int
	Platform           string
	ContentType        string
	Theme              string
	Objective          string
	ScheduledAt        time.Time
	InspirationPostIDs []string
	ProductionBrief    json.RawMessage
	GenerationPlan     json.RawMessage
	Status             string
	BlockReason        string
}

// RunStore persists calendar runs and their slots.
type RunStore interface {
	CreateRun(ctx context.Context, run *RunRecord) error
	InsertSlots(ctx context.Context, runID string, slots []SlotRecord) error
	FinalizeRun(ctx context.Context, runID string, status string, diag RunDiagnostics) error
}

// Pipeline orchestrates both generation stages, the final evidence gate and
// persistence for a single calendar run.
type Pipeline struct {
	builder   ContextBuilder
	processor *Processor
	generator *Generator
	store     RunStore
	logger    logging.Logger
}

func NewPipeline(builder ContextBuilder, processor *Processor, generator *Generator, store RunStore, logger logging.Logger) *Pipeline {
	return &Pipeline{
		builder:   builder,
		processor: processor,
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// PipelineOptions carries per-run request parameters.
type PipelineOptions struct {
	WeekStart    time.Time
	Timezone     string
	DurationDays int
}

// PipelineResult is the completed run handed back to the caller.
type PipelineResult struct {
	RunID        string            `json:"runId"`
	WeekStart    string            `json:"weekStart"`
	Timezone     string            `json:"timezone"`
	DurationDays int               `json:"durationDays"`
	SlotsCount   int               `json:"slotsCount"`
	Calendar     *ContentCalendar  `json:"calendar"`
	Diagnostics  RunDiagnostics    `json:"diagnostics"`
	Readiness    SnapshotReadiness `json:"readiness"`
}

// Run executes a full calendar generation run for one research job.
func (p *Pipeline) Run(ctx context.Context, researchJobID string, opts PipelineOptions) (*PipelineResult, error) {
	log := p.logger.WithField("research_job_id", researchJobID)

	readiness, err := p.builder.ScoreSnapshotReadiness(ctx, researchJobID)
	if err != nil {
		return nil, fmt.Errorf("score snapshot readiness: %w", err)
	}
	if readiness.Score < 0.5 {
		log.WithFields(logging.Fields{
			"score":  readiness.Score,
			"issues": readiness.Issues,
		}).Warn("Research snapshot scored low on readiness, proceeding anyway")
	}

	input, err := p.builder.BuildProcessorInput(ctx, researchJobID)
	if err != nil {
		return nil, fmt.Errorf("build processor input: %w", err)
	}
	if len(input.Posts) == 0 {
		return nil, fmt.Errorf("research job %s has no collected posts", researchJobID)
	}

	durationDays := ClampDurationDays(opts.DurationDays)
	if durationDays == 14 && opts.DurationDays <= 0 && input.DurationDays > 0 {
		durationDays = ClampDurationDays(input.DurationDays)
	}

	brief, procReport, err := p.processor.Run(ctx, input, ProcessorOptions{DurationDays: durationDays})
	if err != nil {
		return nil, fmt.Errorf("stage 1: %w", err)
	}

	var diag RunDiagnostics
	diag.Stage1Attempts = procReport.Attempts
	diag.Stage1UsedFallback = procReport.UsedFallback
	diag.Stage1ValidationErrors = procReport.ValidationErrors

	loc, err := resolveLocation(opts.Timezone, input.Client.Timezone)
	if err != nil {
		return nil, err
	}
	genCfg := GeneratorConfig{WeekStart: opts.WeekStart, Location: loc}

	var cal *ContentCalendar
	if procReport.UsedFallback {
		// A fallback brief is synthetic; a second model pass adds nothing
		// but risk, so stage 2 is deterministic too.
		cal = p.generator.RunDeterministic(brief, genCfg)
		diag.Stage2Deterministic = true
	} else {
		genReport := GeneratorReport{}
		cal, genReport, err = p.generator.Run(ctx, brief, genCfg)
		if err != nil {
			return nil, fmt.Errorf("stage 2: %w", err)
		}
		diag.Stage2Repaired = genReport.Repaired
		diag.ScheduledAtFilledFromScaffold = genReport.ScheduledAtFilled
		diag.RestoredInspirationSlots = genReport.RestoredInspirationSlots
	}

	records, err := p.reconcileSlots(cal, brief, input.Posts, &diag)
	if err != nil {
		return nil, err
	}

	briefJSON, err := json.Marshal(brief)
	if err != nil {
		return nil, fmt.Errorf("marshal calendar brief: %w", err)
	}
	calJSON, err := json.Marshal(cal)
	if err != nil {
		return nil, fmt.Errorf("marshal content calendar: %w", err)
	}
	run := &RunRecord{
		ID:              uuid.New().String(),
		ResearchJobID:   researchJobID,
		WeekStart:       cal.WeekStart,
		Timezone:        cal.Timezone,
		DurationDays:    durationDays,
		CalendarBrief:   briefJSON,
		ContentCalendar: calJSON,
		Status:          RunStatusProcessing,
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if err := p.store.InsertSlots(ctx, run.ID, records); err != nil {
		p.finalize(ctx, run.ID, RunStatusFailed, diag)
		return nil, fmt.Errorf("insert slots: %w", err)
	}
	if err := p.store.FinalizeRun(ctx, run.ID, RunStatusCompleted, diag); err != nil {
		return nil, fmt.Errorf("finalize run: %w", err)
	}

	log.WithFields(logging.Fields{
		"run_id":   run.ID,
		"slots":    len(records),
		"degraded": diag.Degraded(),
	}).Info("Content calendar run completed")

	return &PipelineResult{
		RunID:        run.ID,
		WeekStart:    cal.WeekStart,
		Timezone:     cal.Timezone,
		DurationDays: durationDays,
		SlotsCount:   len(records),
		Calendar:     cal,
		Diagnostics:  diag,
		Readiness:    readiness,
	}, nil
}

// reconcileSlots is the final evidence gate before persistence. Inspiration
// references are re-checked against the live post set; a slot whose evidence
// fully evaporates gets blocked rather than stored with dangling references.
// Mutates the calendar so callers see exactly what was persisted.
func (p *Pipeline) reconcileSlots(cal *ContentCalendar, brief *CalendarBrief, posts []Post, diag *RunDiagnostics) ([]SlotRecord, error) {
	liveIDs := make(map[string]struct{}, len(posts))
	for _, post := range posts {
		liveIDs[post.PostID] = struct{}{}
	}
	slotsByIndex := make(map[int]*BriefSlot, len(brief.Slots))
	for i := range brief.Slots {
		slotsByIndex[brief.Slots[i].SlotIndex] = &brief.Slots[i]
	}

	records := make([]SlotRecord, 0, len(cal.Schedule))
	for i := range cal.Schedule {
		entry := &cal.Schedule[i]

		briefSlot, ok := slotsByIndex[entry.SlotIndex]
		if !ok && i < len(brief.Slots) {
			// Model renumbered the slots; fall back to positional pairing.
			briefSlot = &brief.Slots[i]
			diag.SlotIndexFallbacks++
		}
		if briefSlot != nil {
			if entry.Theme == "" {
				entry.Theme = briefSlot.Theme
			}
			if entry.Objective == "" {
				entry.Objective = briefSlot.Objective
			}
		}

		kept := entry.InspirationPosts[:0]
		for _, ref := range entry.InspirationPosts {
			if _, live := liveIDs[ref.PostID]; live {
				kept = append(kept, ref)
			} else {
				diag.DroppedInvalidInspirationRefs++
			}
		}
		entry.InspirationPosts = kept

		if len(entry.InspirationPosts) == 0 {
			if entry.Status != StatusBlocked && entry.Status != SlotStatusBlocked {
				diag.ForcedBlockedForEvidence++
			}
			entry.Status = SlotStatusBlocked
			entry.BlockReason = BlockReasonMissingInspiration
		}

		scheduledAt, err := ParseScheduledAt(entry.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("schedule[%d]: scheduledAt %q: %w", i, entry.ScheduledAt, err)
		}

		briefJSON, err := json.Marshal(entry.ProductionBrief)
		if err != nil {
			return nil, fmt.Errorf("schedule[%d]: marshal productionBrief: %w", i, err)
		}
		planJSON, err := json.Marshal(entry.GenerationPlan)
		if err != nil {
			return nil, fmt.Errorf("schedule[%d]: marshal generationPlan: %w", i, err)
		}

		ids := make([]string, 0, len(entry.InspirationPosts))
		for _, ref := range entry.InspirationPosts {
			ids = append(ids, ref.PostID)
		}

		records = append(records, SlotRecord{
			SlotID:             entry.SlotID,
			SlotIndex:          entry.SlotIndex,
			Platform:           entry.Platform,
			ContentType:        entry.ContentType,
			Theme:              entry.Theme,
			Objective:          entry.Objective,
			ScheduledAt:        scheduledAt,
			InspirationPostIDs: ids,
			ProductionBrief:    briefJSON,
			GenerationPlan:     planJSON,
			Status:             entry.Status,
			BlockReason:        entry.BlockReason,
		})
	}
	return records, nil
}

func (p *Pipeline) finalize(ctx context.Context, runID, status string, diag RunDiagnostics) {
	if err := p.store.FinalizeRun(ctx, runID, status, diag); err != nil {
		p.logger.WithFields(logging.Fields{
			"run_id": runID,
			"error":  err.Error(),
		}).Error("Failed to finalize calendar run")
	}
}

func resolveLocation(requested, clientDefault string) (*time.Location, error) {
	name := requested
	if name == "" {
		name = clientDefault
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}
