package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"

	"brandforge/api_calendar/pkg/logging"
)

func draftRequest() DraftRequest {
	return DraftRequest{
		Platform:    PlatformInstagram,
		ContentType: "reel",
		Theme:       "Community Wins",
		Objective:   "Engagement",
		ProductionBrief: &ProductionBrief{
			Hook:    "Open on the win",
			Script:  "Beat 1, beat 2, beat 3",
			Caption: "Our community did this.",
		},
		Inspiration: inputPosts()[:1],
	}
}

func TestDraftWriterParsesModelOutput(t *testing.T) {
	provider := &providerStub{responses: []string{
		`{"hook": "Big win", "script": "...", "caption": "caption", "hashtags": ["#community"]}`,
	}}
	writer := NewDraftWriter(provider, logging.NewLogger())

	draft, err := writer.Write(context.Background(), draftRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Hook != "Big win" {
		t.Fatalf("unexpected hook %q", draft.Hook)
	}
	if len(draft.Hashtags) != 1 {
		t.Fatalf("unexpected hashtags %v", draft.Hashtags)
	}
}

func TestDraftWriterDegradesToBriefOnGarbage(t *testing.T) {
	provider := &providerStub{responses: []string{"sorry, no JSON today"}}
	writer := NewDraftWriter(provider, logging.NewLogger())

	draft, err := writer.Write(context.Background(), draftRequest())
	if err != nil {
		t.Fatalf("expected degraded draft, got error: %v", err)
	}
	if draft.Hook != "Open on the win" {
		t.Fatalf("expected hook from the production brief, got %q", draft.Hook)
	}
	if len(draft.Hashtags) == 0 || draft.Hashtags[0] != "#community" {
		t.Fatalf("expected theme-derived hashtags, got %v", draft.Hashtags)
	}
}

func TestDraftWriterRequiresProductionBrief(t *testing.T) {
	writer := NewDraftWriter(&providerStub{responses: []string{"{}"}}, logging.NewLogger())

	_, err := writer.Write(context.Background(), DraftRequest{Platform: PlatformInstagram})
	if err == nil {
		t.Fatal("expected error for missing production brief")
	}
}

func TestDraftWriterPropagatesProviderErrors(t *testing.T) {
	provider := &providerStub{err: errors.New("timeout")}
	writer := NewDraftWriter(provider, logging.NewLogger())

	_, err := writer.Write(context.Background(), draftRequest())
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestDraftWriterPromptCarriesInstructions(t *testing.T) {
	provider := &providerStub{responses: []string{
		`{"hook": "h", "script": "s", "caption": "c", "hashtags": []}`,
	}}
	writer := NewDraftWriter(provider, logging.NewLogger())

	req := draftRequest()
	req.Instructions = "Mention the fall launch"
	if _, err := writer.Write(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(provider.requests[0].Prompt, "Mention the fall launch") {
		t.Fatal("expected instructions in the prompt")
	}
}
