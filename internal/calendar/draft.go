package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"brandforge/api_calendar/pkg/llm"
	"brandforge/api_calendar/pkg/logging"
)

// DraftWriter renders copy drafts for stored calendar slots.
type DraftWriter struct {
	provider llm.Provider
	logger   logging.Logger
}

func NewDraftWriter(provider llm.Provider, logger logging.Logger) *DraftWriter {
	return &DraftWriter{provider: provider, logger: logger}
}

// DraftRequest carries everything the writer needs about one slot.
type DraftRequest struct {
	Platform        string
	ContentType     string
	Theme           string
	Objective       string
	ProductionBrief *ProductionBrief
	Inspiration     []Post
	// Instructions optionally override or extend the brief for this draft.
	Instructions string
}

// DraftContent is the model's draft payload before versioning and storage.
type DraftContent struct {
	Hook     string   `json:"hook"`
	Script   string   `json:"script"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// Write produces a draft for one slot. An unusable completion degrades to a
// draft assembled from the production brief instead of failing the request.
func (w *DraftWriter) Write(ctx context.Context, req DraftRequest) (*DraftContent, error) {
	if req.ProductionBrief == nil {
		return nil, errors.New("slot has no production brief")
	}

	text, err := w.provider.Complete(ctx, llm.Request{
		System: draftSystemPrompt,
		Prompt: buildDraftPrompt(req),
	})
	if err != nil {
		return nil, fmt.Errorf("draft completion: %w", err)
	}

	payload, err := extractJSONObject(text)
	if err == nil {
		draft := &DraftContent{}
		if jsonErr := json.Unmarshal(payload, draft); jsonErr == nil && draft.Caption != "" {
			if draft.Hashtags == nil {
				draft.Hashtags = []string{}
			}
			return draft, nil
		}
	}

	w.logger.WithField("platform", req.Platform).
		Warn("Draft completion was unusable, assembling draft from production brief")
	return draftFromBrief(req), nil
}

func buildDraftPrompt(req DraftRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a %s draft for %s.\n", req.ContentType, req.Platform)
	if req.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s.\n", req.Theme)
	}
	if req.Objective != "" {
		fmt.Fprintf(&b, "Objective: %s.\n", req.Objective)
	}

	b.WriteString("\nProduction brief:\n")
	briefJSON, _ := json.Marshal(req.ProductionBrief)
	b.Write(briefJSON)

	if len(req.Inspiration) > 0 {
		b.WriteString("\n\nInspiration posts (tone and format reference only):\n")
		postsJSON, _ := json.Marshal(req.Inspiration)
		b.Write(postsJSON)
	}
	if req.Instructions != "" {
		b.WriteString("\n\nAdditional instructions from the client team:\n")
		b.WriteString(req.Instructions)
	}
	return b.String()
}

// draftFromBrief is the degraded path: the production brief already contains
// hook, script and caption copy, so reuse it verbatim.
func draftFromBrief(req DraftRequest) *DraftContent {
	hashtags := []string{}
	for _, token := range tokenPattern.FindAllString(strings.ToLower(req.Theme), -1) {
		if len(token) >= 4 {
			hashtags = append(hashtags, "#"+token)
		}
	}
	return &DraftContent{
		Hook:     req.ProductionBrief.Hook,
		Script:   req.ProductionBrief.Script,
		Caption:  req.ProductionBrief.Caption,
		Hashtags: hashtags,
	}
}
