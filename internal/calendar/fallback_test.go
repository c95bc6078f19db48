package calendar

import "testing"

func fallbackInput() *ProcessorInput {
	return &ProcessorInput{
		ResearchJobID: "job-1",
		Client: ClientProfile{
			Name: "Acme",
			Handles: map[string]string{
				PlatformInstagram: "acme",
				PlatformTikTok:    "acme",
			},
			Timezone: "UTC",
		},
		Posts: inputPosts(),
	}
}

func TestBuildFallbackBriefProducesRequestedSlotCount(t *testing.T) {
	brief := BuildFallbackBrief(fallbackInput(), 14)
	if len(brief.Slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(brief.Slots))
	}
}

func TestBuildFallbackBriefAlwaysPassesValidation(t *testing.T) {
	input := fallbackInput()
	brief := BuildFallbackBrief(input, 7)

	result := ValidateCalendarBrief(brief, input.Posts)
	if !result.Valid {
		t.Fatalf("fallback brief failed validation: %v", result.Errors)
	}
	for i, slot := range brief.Slots {
		if len(slot.InspirationPosts) == 0 {
			t.Fatalf("slot %d has no inspiration", i)
		}
		if slot.SuggestedHook == "" {
			t.Fatalf("slot %d has no suggested hook", i)
		}
	}
}

func TestBuildFallbackBriefSkipsPlatformsWithoutPosts(t *testing.T) {
	input := fallbackInput()
	// TikTok handle is tracked but produced no posts.
	filtered := input.Posts[:0:0]
	for _, post := range input.Posts {
		if post.Platform == PlatformInstagram {
			filtered = append(filtered, post)
		}
	}
	input.Posts = filtered

	brief := BuildFallbackBrief(input, 7)
	for i, slot := range brief.Slots {
		if slot.Platform != PlatformInstagram {
			t.Fatalf("slot %d assigned to %s which has no posts", i, slot.Platform)
		}
	}
}

func TestBuildFallbackBriefRanksByEngagement(t *testing.T) {
	input := fallbackInput()
	brief := BuildFallbackBrief(input, 4)

	// ig-1 outscores ig-2 (500+80+900 vs 120+20+300), so every instagram
	// slot's primary inspiration is ig-1.
	for i, slot := range brief.Slots {
		if slot.Platform != PlatformInstagram {
			continue
		}
		if slot.InspirationPosts[0].PostID != "ig-1" {
			t.Fatalf("slot %d primary inspiration = %s, want ig-1", i, slot.InspirationPosts[0].PostID)
		}
	}
}

func TestBuildFallbackBriefUsesPillarsAsThemes(t *testing.T) {
	input := fallbackInput()
	input.Pillars = []Pillar{{Name: "Founder Stories"}, {Name: "Product Deep Dives"}}

	brief := BuildFallbackBrief(input, 4)
	if brief.Slots[0].Theme != "Founder Stories" {
		t.Fatalf("expected pillar theme, got %q", brief.Slots[0].Theme)
	}
	if brief.Slots[1].Theme != "Product Deep Dives" {
		t.Fatalf("expected second pillar theme, got %q", brief.Slots[1].Theme)
	}
}

func TestBuildFallbackBriefCyclesObjectives(t *testing.T) {
	brief := BuildFallbackBrief(fallbackInput(), 6)
	want := []string{"Awareness", "Education", "Engagement", "Conversion", "Retention", "Awareness"}
	for i, slot := range brief.Slots {
		if slot.Objective != want[i] {
			t.Fatalf("slot %d objective = %q, want %q", i, slot.Objective, want[i])
		}
	}
}

func TestExtractKeywordsFiltersNoise(t *testing.T) {
	posts := []Post{
		{Caption: "Check out https://example.com/promo our launch launch launch @acme 2024"},
		{Caption: "launch week with the team"},
	}
	keywords := extractKeywords(posts)
	if len(keywords) == 0 || keywords[0] != "launch" {
		t.Fatalf("expected launch as top keyword, got %v", keywords)
	}
	for _, kw := range keywords {
		if kw == "2024" || kw == "acme" {
			t.Fatalf("noise token %q survived", kw)
		}
	}
}

func TestExtractKeywordsFallsBackWhenEmpty(t *testing.T) {
	keywords := extractKeywords([]Post{{Caption: ""}})
	if len(keywords) == 0 {
		t.Fatal("expected generic keywords")
	}
	if keywords[0] != "content" {
		t.Fatalf("expected generic keyword list, got %v", keywords)
	}
}
