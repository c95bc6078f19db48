package research

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"brandforge/api_calendar/pkg/logging"
)

func newBuilder(t *testing.T) (*SQLContextBuilder, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewSQLContextBuilder(db, logging.NewLogger()), mock, func() { db.Close() }
}

func TestBuildProcessorInputLoadsFullSnapshot(t *testing.T) {
	builder, mock, cleanup := newBuilder(t)
	defer cleanup()

	mock.ExpectQuery("FROM research_jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"client_name", "timezone"}).
			AddRow("Acme", "Europe/Amsterdam"))

	mock.ExpectQuery("FROM job_handles").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"platform", "handle"}).
			AddRow("instagram", "acme").
			AddRow("tiktok", "acme.official"))

	mock.ExpectQuery("FROM social_posts").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"post_id", "handle", "platform", "post_url", "caption", "likes", "comments", "views", "shares",
		}).
			AddRow("ig-1", "acme", "instagram", "https://instagram.com/p/ig-1", "launch day", 500, 40, 9000, 12).
			AddRow("tt-1", "acme.official", "tiktok", "https://tiktok.com/v/tt-1", "", 900, 80, 40000, 30))

	mock.ExpectQuery("FROM strategy_pillars").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("p-1", "Founder Stories", "behind the scenes"))

	mock.ExpectQuery("FROM content_gaps").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "summary"}).
			AddRow("gap", "no educational content").
			AddRow("opportunity", "duets are trending"))

	input, err := builder.BuildProcessorInput(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("BuildProcessorInput returned error: %v", err)
	}
	if input.Client.Name != "Acme" || input.Client.Timezone != "Europe/Amsterdam" {
		t.Fatalf("unexpected client: %+v", input.Client)
	}
	if input.Client.Handles["tiktok"] != "acme.official" {
		t.Fatalf("unexpected handles: %v", input.Client.Handles)
	}
	if len(input.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(input.Posts))
	}
	if len(input.Pillars) != 1 || input.Pillars[0].Name != "Founder Stories" {
		t.Fatalf("unexpected pillars: %+v", input.Pillars)
	}
	if len(input.Gaps) != 1 || len(input.Opportunities) != 1 {
		t.Fatalf("unexpected gaps %v opportunities %v", input.Gaps, input.Opportunities)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBuildProcessorInputJobNotFound(t *testing.T) {
	builder, mock, cleanup := newBuilder(t)
	defer cleanup()

	mock.ExpectQuery("FROM research_jobs").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"client_name", "timezone"}))

	_, err := builder.BuildProcessorInput(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestScoreSnapshotReadinessFullSnapshot(t *testing.T) {
	builder, mock, cleanup := newBuilder(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"posts", "handles", "platforms", "pillars", "gaps"}).
			AddRow(40, 2, 2, 3, 4))

	mock.ExpectExec("UPDATE research_jobs").
		WithArgs("job-1", 100).
		WillReturnResult(sqlmock.NewResult(0, 1))

	readiness, err := builder.ScoreSnapshotReadiness(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("ScoreSnapshotReadiness returned error: %v", err)
	}
	if readiness.Score != 1.0 {
		t.Fatalf("expected full score, got %v", readiness.Score)
	}
	if len(readiness.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", readiness.Issues)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestScoreSnapshotReadinessFlagsThinSnapshot(t *testing.T) {
	builder, mock, cleanup := newBuilder(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Ten posts on one of two tracked platforms, no pillars, no gap analysis.
	mock.ExpectQuery("SELECT").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"posts", "handles", "platforms", "pillars", "gaps"}).
			AddRow(10, 2, 1, 0, 0))

	mock.ExpectExec("UPDATE research_jobs").
		WithArgs("job-1", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	readiness, err := builder.ScoreSnapshotReadiness(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("ScoreSnapshotReadiness returned error: %v", err)
	}
	if readiness.Score != 0.3 {
		t.Fatalf("expected score 0.3, got %v", readiness.Score)
	}
	if len(readiness.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", readiness.Issues)
	}
}

func TestScoreSnapshotReadinessJobNotFound(t *testing.T) {
	builder, mock, cleanup := newBuilder(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := builder.ScoreSnapshotReadiness(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
