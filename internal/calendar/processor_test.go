package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"brandforge/api_calendar/pkg/llm"
	"brandforge/api_calendar/pkg/logging"
)

type providerStub struct {
	responses []string
	err       error
	requests  []llm.Request
}

func (p *providerStub) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return "", p.err
	}
	idx := len(p.requests) - 1
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return p.responses[idx], nil
}

func briefJSON(t *testing.T, brief *CalendarBrief) string {
	t.Helper()
	data, err := json.Marshal(brief)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestProcessorAcceptsValidFirstAttempt(t *testing.T) {
	input := fallbackInput()
	provider := &providerStub{responses: []string{briefJSON(t, validBrief())}}
	proc := NewProcessor(provider, logging.NewLogger())

	brief, report, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 14})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", report.Attempts)
	}
	if report.UsedFallback {
		t.Fatal("expected no fallback")
	}
	if len(brief.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(brief.Slots))
	}
}

func TestProcessorRepairsInvalidBrief(t *testing.T) {
	input := fallbackInput()
	bad := validBrief()
	bad.Slots[0].InspirationPosts[0].PostID = "fabricated"
	provider := &providerStub{responses: []string{
		briefJSON(t, bad),
		briefJSON(t, validBrief()),
	}}
	proc := NewProcessor(provider, logging.NewLogger())

	_, report, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 14})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", report.Attempts)
	}
	repairPrompt := provider.requests[1].Prompt
	if !strings.Contains(repairPrompt, "failed validation") {
		t.Fatal("expected repair prompt to carry the validation errors")
	}
	if !strings.Contains(repairPrompt, "fabricated") {
		t.Fatal("expected repair prompt to name the bad postId")
	}
}

func TestProcessorFallsBackWhenNoSlotsSurvive(t *testing.T) {
	input := fallbackInput()
	empty := `{"slots": [], "usedPostIds": []}`
	provider := &providerStub{responses: []string{empty, empty, empty}}
	proc := NewProcessor(provider, logging.NewLogger())

	brief, report, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 15})
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if !report.UsedFallback {
		t.Fatal("expected fallback to be used")
	}
	if report.Attempts != 3 {
		t.Fatalf("expected 3 attempts before fallback, got %d", report.Attempts)
	}
	// 15 requested days clamp down to the 14 day horizon.
	if len(brief.Slots) != 14 {
		t.Fatalf("expected 14 fallback slots, got %d", len(brief.Slots))
	}
	if result := ValidateCalendarBrief(brief, input.Posts); !result.Valid {
		t.Fatalf("fallback brief failed validation: %v", result.Errors)
	}
}

func TestProcessorFailsWhenSlotsExistButStayInvalid(t *testing.T) {
	input := fallbackInput()
	bad := validBrief()
	bad.Slots[0].InspirationPosts[0].PostID = "fabricated"
	provider := &providerStub{responses: []string{briefJSON(t, bad)}}
	proc := NewProcessor(provider, logging.NewLogger())

	_, report, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 14})
	if err == nil {
		t.Fatal("expected error")
	}
	if report.UsedFallback {
		t.Fatal("fallback must not mask a partially valid brief")
	}
}

func TestProcessorFailsFastOnUnparsableOutput(t *testing.T) {
	input := fallbackInput()
	provider := &providerStub{responses: []string{"I refuse to answer in JSON."}}
	proc := NewProcessor(provider, logging.NewLogger())

	_, _, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 14})
	if !errors.Is(err, ErrUnparsableModelOutput) {
		t.Fatalf("expected ErrUnparsableModelOutput, got %v", err)
	}
	if len(provider.requests) != 1 {
		t.Fatalf("expected no repair attempts, got %d requests", len(provider.requests))
	}
}

func TestProcessorPropagatesProviderErrors(t *testing.T) {
	input := fallbackInput()
	provider := &providerStub{err: errors.New("rate limited")}
	proc := NewProcessor(provider, logging.NewLogger())

	_, _, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 14})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestProcessorPromptCarriesEvidenceAndHorizon(t *testing.T) {
	input := fallbackInput()
	provider := &providerStub{responses: []string{briefJSON(t, validBrief())}}
	proc := NewProcessor(provider, logging.NewLogger())

	if _, _, err := proc.Run(context.Background(), input, ProcessorOptions{DurationDays: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := provider.requests[0].Prompt
	if !strings.Contains(prompt, "7-slot") {
		t.Fatal("expected prompt to state the slot count")
	}
	if !strings.Contains(prompt, "ig-1") {
		t.Fatal("expected prompt to embed the collected posts")
	}
}
