package research

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/pkg/logging"
)

// ErrJobNotFound is returned when the research job does not exist.
var ErrJobNotFound = errors.New("research job not found")

// SQLContextBuilder assembles the stage 1 input from the research tables.
type SQLContextBuilder struct {
	db     *sql.DB
	logger logging.Logger
}

func NewSQLContextBuilder(db *sql.DB, logger logging.Logger) *SQLContextBuilder {
	return &SQLContextBuilder{db: db, logger: logger}
}

// BuildProcessorInput loads the full research snapshot for one job.
func (b *SQLContextBuilder) BuildProcessorInput(ctx context.Context, researchJobID string) (*calendar.ProcessorInput, error) {
	input := &calendar.ProcessorInput{ResearchJobID: researchJobID}

	err := b.db.QueryRowContext(ctx, `
		SELECT client_name, timezone
		FROM research_jobs
		WHERE id = $1`,
		researchJobID).Scan(&input.Client.Name, &input.Client.Timezone)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load research job: %w", err)
	}

	input.Client.Handles, err = b.loadHandles(ctx, researchJobID)
	if err != nil {
		return nil, err
	}
	input.Posts, err = b.loadPosts(ctx, researchJobID)
	if err != nil {
		return nil, err
	}
	input.Pillars, err = b.loadPillars(ctx, researchJobID)
	if err != nil {
		return nil, err
	}
	input.Gaps, input.Opportunities, err = b.loadGaps(ctx, researchJobID)
	if err != nil {
		return nil, err
	}
	return input, nil
}

func (b *SQLContextBuilder) loadHandles(ctx context.Context, jobID string) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT platform, handle
		FROM job_handles
		WHERE research_job_id = $1`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("load handles: %w", err)
	}
	defer rows.Close()

	handles := map[string]string{}
	for rows.Next() {
		var platform, handle string
		if err := rows.Scan(&platform, &handle); err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		handles[platform] = handle
	}
	return handles, rows.Err()
}

func (b *SQLContextBuilder) loadPosts(ctx context.Context, jobID string) ([]calendar.Post, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT post_id, handle, platform, post_url, COALESCE(caption, ''), likes, comments, views, shares
		FROM social_posts
		WHERE research_job_id = $1
		ORDER BY platform, likes DESC`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	defer rows.Close()

	posts := []calendar.Post{}
	for rows.Next() {
		var post calendar.Post
		if err := rows.Scan(&post.PostID, &post.Handle, &post.Platform, &post.PostURL,
			&post.Caption, &post.Likes, &post.Comments, &post.Views, &post.Shares); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (b *SQLContextBuilder) loadPillars(ctx context.Context, jobID string) ([]calendar.Pillar, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM strategy_pillars
		WHERE research_job_id = $1
		ORDER BY name`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("load pillars: %w", err)
	}
	defer rows.Close()

	pillars := []calendar.Pillar{}
	for rows.Next() {
		var pillar calendar.Pillar
		if err := rows.Scan(&pillar.ID, &pillar.Name, &pillar.Description); err != nil {
			return nil, fmt.Errorf("scan pillar: %w", err)
		}
		pillars = append(pillars, pillar)
	}
	return pillars, rows.Err()
}

func (b *SQLContextBuilder) loadGaps(ctx context.Context, jobID string) (gaps, opportunities []string, err error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT kind, summary
		FROM content_gaps
		WHERE research_job_id = $1`,
		jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("load content gaps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, summary string
		if err := rows.Scan(&kind, &summary); err != nil {
			return nil, nil, fmt.Errorf("scan content gap: %w", err)
		}
		if kind == "opportunity" {
			opportunities = append(opportunities, summary)
		} else {
			gaps = append(gaps, summary)
		}
	}
	return gaps, opportunities, rows.Err()
}

// ScoreSnapshotReadiness grades how complete a research snapshot is and
// records the score on the job row. Evidence volume dominates the grade.
func (b *SQLContextBuilder) ScoreSnapshotReadiness(ctx context.Context, researchJobID string) (calendar.SnapshotReadiness, error) {
	var readiness calendar.SnapshotReadiness

	var exists bool
	err := b.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM research_jobs WHERE id = $1)`,
		researchJobID).Scan(&exists)
	if err != nil {
		return readiness, fmt.Errorf("check research job: %w", err)
	}
	if !exists {
		return readiness, ErrJobNotFound
	}

	var postCount, handleCount, platformsWithPosts, pillarCount, gapCount int
	err = b.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM social_posts WHERE research_job_id = $1),
			(SELECT COUNT(*) FROM job_handles WHERE research_job_id = $1),
			(SELECT COUNT(DISTINCT platform) FROM social_posts WHERE research_job_id = $1),
			(SELECT COUNT(*) FROM strategy_pillars WHERE research_job_id = $1),
			(SELECT COUNT(*) FROM content_gaps WHERE research_job_id = $1)`,
		researchJobID).Scan(&postCount, &handleCount, &platformsWithPosts, &pillarCount, &gapCount)
	if err != nil {
		return readiness, fmt.Errorf("count research snapshot: %w", err)
	}

	readiness.PostCount = postCount

	// Posts carry most of the weight; pillars and gap analysis round it out.
	score := 0.6 * math.Min(float64(postCount)/20.0, 1.0)
	if pillarCount > 0 {
		score += 0.2
	} else {
		readiness.Issues = append(readiness.Issues, "no strategy pillars defined")
	}
	if gapCount > 0 {
		score += 0.2
	} else {
		readiness.Issues = append(readiness.Issues, "no content gap analysis recorded")
	}
	if postCount == 0 {
		readiness.Issues = append(readiness.Issues, "no posts collected")
	}
	if handleCount > platformsWithPosts {
		readiness.Issues = append(readiness.Issues,
			fmt.Sprintf("%d of %d tracked platforms have no collected posts", handleCount-platformsWithPosts, handleCount))
	}
	readiness.Score = math.Round(score*100) / 100

	_, err = b.db.ExecContext(ctx, `
		UPDATE research_jobs
		SET readiness_score = $2, updated_at = NOW()
		WHERE id = $1`,
		researchJobID, int(math.Round(readiness.Score*100)))
	if err != nil {
		return readiness, fmt.Errorf("record readiness score: %w", err)
	}
	return readiness, nil
}
