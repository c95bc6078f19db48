package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/pkg/logging"
)

// ErrNotFound is returned when a run or slot does not exist.
var ErrNotFound = errors.New("not found")

// RunStore persists calendar runs, slots and their read side.
type RunStore struct {
	db     *sql.DB
	logger logging.Logger
}

func NewRunStore(db *sql.DB, logger logging.Logger) *RunStore {
	return &RunStore{db: db, logger: logger}
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID            string    `json:"id"`
	ResearchJobID string    `json:"researchJobId"`
	WeekStart     string    `json:"weekStart"`
	Timezone      string    `json:"timezone"`
	DurationDays  int       `json:"durationDays"`
	Status        string    `json:"status"`
	SlotCount     int       `json:"slotCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StoredRun is a full run document as read back from the database.
type StoredRun struct {
	RunSummary
	ContentCalendar json.RawMessage `json:"calendar"`
	Diagnostics     json.RawMessage `json:"diagnostics,omitempty"`
}

// StoredSlot is one persisted slot, read back for draft generation.
type StoredSlot struct {
	ID                 string          `json:"id"`
	RunID              string          `json:"runId"`
	SlotIndex          int             `json:"slotIndex"`
	Platform           string          `json:"platform"`
	ContentType        string          `json:"contentType"`
	Theme              string          `json:"theme,omitempty"`
	Objective          string          `json:"objective,omitempty"`
	ScheduledAt        time.Time       `json:"scheduledAt"`
	InspirationPostIDs []string        `json:"inspirationPostIds"`
	ProductionBrief    json.RawMessage `json:"productionBrief,omitempty"`
	GenerationPlan     json.RawMessage `json:"generationPlan,omitempty"`
	Status             string          `json:"status"`
	BlockReason        string          `json:"blockReason,omitempty"`
}

// CreateRun inserts a new run in its initial status. Diagnostics are written
// at finalization.
func (s *RunStore) CreateRun(ctx context.Context, run *calendar.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar.content_calendar_runs
			(id, research_job_id, week_start, timezone, duration_days, calendar_brief, content_calendar, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.ResearchJobID, run.WeekStart, run.Timezone, run.DurationDays,
		[]byte(run.CalendarBrief), []byte(run.ContentCalendar), run.Status)
	if err != nil {
		return fmt.Errorf("insert calendar run: %w", err)
	}
	return nil
}

// InsertSlots writes all slots of a run in one transaction.
func (s *RunStore) InsertSlots(ctx context.Context, runID string, slots []calendar.SlotRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calendar.calendar_slots
			(id, calendar_run_id, slot_index, platform, content_type, scheduled_at,
			 theme, objective, production_brief, generation_plan, inspiration_post_ids, status, block_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("prepare slot insert: %w", err)
	}
	defer stmt.Close()

	for _, slot := range slots {
		_, err := stmt.ExecContext(ctx,
			slot.SlotID, runID, slot.SlotIndex, slot.Platform, slot.ContentType, slot.ScheduledAt,
			slot.Theme, slot.Objective, []byte(slot.ProductionBrief), []byte(slot.GenerationPlan),
			pq.Array(slot.InspirationPostIDs), slot.Status, slot.BlockReason)
		if err != nil {
			return fmt.Errorf("insert slot %d: %w", slot.SlotIndex, err)
		}
	}
	return tx.Commit()
}

// FinalizeRun records the terminal status and diagnostics of a run.
func (s *RunStore) FinalizeRun(ctx context.Context, runID string, status string, diag calendar.RunDiagnostics) error {
	diagJSON, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE calendar.content_calendar_runs
		SET status = $2, diagnostics = $3, updated_at = NOW()
		WHERE id = $1`,
		runID, status, diagJSON)
	if err != nil {
		return fmt.Errorf("finalize calendar run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLatestRun returns the run with the most slots for a research job,
// newest first on ties. weekStart filters to a specific week when non-empty.
func (s *RunStore) GetLatestRun(ctx context.Context, researchJobID, weekStart string) (*StoredRun, error) {
	query := `
		SELECT r.id, r.research_job_id, r.week_start, r.timezone, r.duration_days,
		       r.status, r.content_calendar, r.diagnostics, r.created_at, COUNT(s.id) AS slot_count
		FROM calendar.content_calendar_runs r
		LEFT JOIN calendar.calendar_slots s ON s.calendar_run_id = r.id
		WHERE r.research_job_id = $1`
	args := []interface{}{researchJobID}
	if weekStart != "" {
		query += ` AND r.week_start = $2`
		args = append(args, weekStart)
	}
	query += `
		GROUP BY r.id
		ORDER BY slot_count DESC, r.created_at DESC
		LIMIT 1`

	var run StoredRun
	var weekStartTS time.Time
	var diagnostics sql.NullString
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&run.ID, &run.ResearchJobID, &weekStartTS, &run.Timezone, &run.DurationDays,
		&run.Status, &run.ContentCalendar, &diagnostics, &run.CreatedAt, &run.SlotCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	run.WeekStart = weekStartTS.Format("2006-01-02")
	if diagnostics.Valid {
		run.Diagnostics = json.RawMessage(diagnostics.String)
	}
	return &run, nil
}

// ListRuns returns all runs for a research job, newest first.
func (s *RunStore) ListRuns(ctx context.Context, researchJobID string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.research_job_id, r.week_start, r.timezone, r.duration_days,
		       r.status, r.created_at, COUNT(s.id) AS slot_count
		FROM calendar.content_calendar_runs r
		LEFT JOIN calendar.calendar_slots s ON s.calendar_run_id = r.id
		WHERE r.research_job_id = $1
		GROUP BY r.id
		ORDER BY r.created_at DESC`,
		researchJobID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var run RunSummary
		var weekStartTS time.Time
		if err := rows.Scan(&run.ID, &run.ResearchJobID, &weekStartTS, &run.Timezone,
			&run.DurationDays, &run.Status, &run.CreatedAt, &run.SlotCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.WeekStart = weekStartTS.Format("2006-01-02")
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSlot returns one persisted slot by id.
func (s *RunStore) GetSlot(ctx context.Context, slotID string) (*StoredSlot, error) {
	var slot StoredSlot
	var theme, objective, blockReason sql.NullString
	var scheduledAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, calendar_run_id, slot_index, platform, content_type, scheduled_at,
		       theme, objective, production_brief, generation_plan, inspiration_post_ids, status, block_reason
		FROM calendar.calendar_slots
		WHERE id = $1`,
		slotID).Scan(
		&slot.ID, &slot.RunID, &slot.SlotIndex, &slot.Platform, &slot.ContentType, &scheduledAt,
		&theme, &objective, &slot.ProductionBrief, &slot.GenerationPlan,
		pq.Array(&slot.InspirationPostIDs), &slot.Status, &blockReason)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	slot.Theme = theme.String
	slot.Objective = objective.String
	slot.BlockReason = blockReason.String
	if scheduledAt.Valid {
		slot.ScheduledAt = scheduledAt.Time
	}
	if slot.InspirationPostIDs == nil {
		slot.InspirationPostIDs = []string{}
	}
	return &slot, nil
}

// GetInspirationPosts resolves a slot's inspiration references back to the
// collected posts of the run's research job.
func (s *RunStore) GetInspirationPosts(ctx context.Context, slotID string) ([]calendar.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.post_id, p.handle, p.platform, p.post_url, COALESCE(p.caption, ''),
		       p.likes, p.comments, p.views, p.shares
		FROM calendar.calendar_slots sl
		JOIN calendar.content_calendar_runs r ON r.id = sl.calendar_run_id
		JOIN social_posts p ON p.research_job_id = r.research_job_id
		                   AND p.post_id = ANY(sl.inspiration_post_ids)
		WHERE sl.id = $1`,
		slotID)
	if err != nil {
		return nil, fmt.Errorf("get inspiration posts: %w", err)
	}
	defer rows.Close()

	posts := []calendar.Post{}
	for rows.Next() {
		var post calendar.Post
		if err := rows.Scan(&post.PostID, &post.Handle, &post.Platform, &post.PostURL,
			&post.Caption, &post.Likes, &post.Comments, &post.Views, &post.Shares); err != nil {
			return nil, fmt.Errorf("scan inspiration post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
