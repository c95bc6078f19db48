package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
)

const processorSystemPrompt = `You are a senior social media strategist planning a content calendar brief.
Hard constraints, non-negotiable:
- You may only reference posts that appear in the provided input. Never invent a postId, postUrl or metric.
- Copy postUrl values character-for-character from the input.
- Every slot must cite 1 to 3 inspirationPosts from the input.
- List every postId you reference anywhere in the brief in usedPostIds.
- Respond with a single JSON object and nothing else. No prose, no markdown fences.`

const generatorSystemPrompt = `You are a content production planner turning an approved calendar brief into a concrete posting schedule.
Hard constraints, non-negotiable:
- Produce exactly one schedule entry per brief slot. Never add or remove slots.
- Keep each slot's platform and contentType exactly as the brief decided them.
- inspirationPosts must be drawn from the same brief slot. Never add new posts.
- Use the provided schedule scaffold for scheduledAt values.
- Every entry needs slotId, productionBrief, generationPlan and a status of "ready_to_generate", "planned" or "blocked".
- Set status "blocked" with blockReason "MISSING_INSPIRATION_EVIDENCE" only when a slot genuinely has no inspiration; default to "ready_to_generate".
- Respond with a single JSON object and nothing else. No prose, no markdown fences.`

const draftSystemPrompt = `You are a short-form content copywriter. Write a draft from the production brief.
Use the inspiration posts for tone and format only; never copy their text.
Respond with a single JSON object {"hook": "...", "script": "...", "caption": "...", "hashtags": ["..."]} and nothing else.`

func buildProcessorPrompt(input *ProcessorInput, durationDays int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan a %d-slot content calendar brief for %s.\n", durationDays, clientLabel(input))
	fmt.Fprintf(&b, "Planning horizon: %d days. Timezone: %s.\n\n", durationDays, input.Client.Timezone)

	b.WriteString("Client handles:\n")
	for platform, handle := range input.Client.Handles {
		fmt.Fprintf(&b, "- %s: @%s\n", platform, handle)
	}

	if len(input.Pillars) > 0 {
		b.WriteString("\nStrategy pillars:\n")
		for _, pillar := range input.Pillars {
			fmt.Fprintf(&b, "- %s", pillar.Name)
			if pillar.Description != "" {
				fmt.Fprintf(&b, ": %s", pillar.Description)
			}
			b.WriteString("\n")
		}
	}
	if len(input.Gaps) > 0 {
		b.WriteString("\nContent gaps to address:\n")
		for _, gap := range input.Gaps {
			fmt.Fprintf(&b, "- %s\n", gap)
		}
	}
	if len(input.Opportunities) > 0 {
		b.WriteString("\nOpportunities:\n")
		for _, opp := range input.Opportunities {
			fmt.Fprintf(&b, "- %s\n", opp)
		}
	}

	b.WriteString("\nCollected posts (the only admissible evidence):\n")
	postsJSON, _ := json.Marshal(input.Posts)
	b.Write(postsJSON)

	b.WriteString("\n\nRespond with a JSON object shaped like:\n")
	b.WriteString(briefShapeHint)
	return b.String()
}

const briefShapeHint = `{
  "slots": [{"slotIndex": 0, "platform": "instagram", "contentType": "reel", "theme": "...", "objective": "...", "briefConcept": "...", "inspirationPosts": [{"postId": "...", "handle": "...", "postUrl": "...", "reasonType": "...", "reason": "...", "metricsUsed": ["likes"]}], "suggestedHook": "...", "requiredInputs": ["..."], "originalityRules": ["..."], "notesForGenerator": "..."}],
  "usedPostIds": ["..."],
  "rationaleByType": {"reel": {"reason": "...", "evidence": []}},
  "weeklyThemes": [{"week": 1, "theme": "...", "evidence": []}],
  "mentions": []
}`

func buildProcessorRepairPrompt(basePrompt, previousOutput string, errs []string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nYour previous response failed validation. Fix every problem listed below.\n")
	b.WriteString("Keep every postId you already used; do not swap them for new ones.\n\nValidation errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	b.WriteString("\nPrevious response:\n")
	b.WriteString(previousOutput)
	return b.String()
}

func buildGeneratorPrompt(brief *CalendarBrief, scaffold map[int]string, weekStart, timezone string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Turn this calendar brief into a posting schedule starting %s (timezone %s).\n\n", weekStart, timezone)

	b.WriteString("Schedule scaffold (slotIndex -> scheduledAt, use these values):\n")
	scaffoldJSON, _ := json.Marshal(scaffold)
	b.Write(scaffoldJSON)

	b.WriteString("\n\nCalendar brief:\n")
	briefJSON, _ := json.Marshal(brief)
	b.Write(briefJSON)

	b.WriteString("\n\nRespond with a JSON object shaped like:\n")
	b.WriteString(calendarShapeHint)
	return b.String()
}

const calendarShapeHint = `{
  "weekStart": "YYYY-MM-DD",
  "timezone": "...",
  "schedule": [{"slotId": "...", "slotIndex": 0, "platform": "...", "contentType": "...", "theme": "...", "objective": "...", "scheduledAt": "...", "inspirationPosts": [], "productionBrief": {"hook": "...", "structure": "...", "script": "...", "caption": "...", "deliverableSpec": "..."}, "generationPlan": {"workflow": "...", "steps": ["..."], "renderParams": {}}, "status": "ready_to_generate"}]
}`

func buildGeneratorRepairPrompt(basePrompt, previousOutput string, errs []string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nYour previous response failed validation. Fix every problem listed below without changing slot count, platforms or inspiration posts.\n\nValidation errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&b, "- %s\n", e)
	}
	b.WriteString("\nPrevious response:\n")
	b.WriteString(previousOutput)
	return b.String()
}

func clientLabel(input *ProcessorInput) string {
	if input.Client.Name != "" {
		return input.Client.Name
	}
	return "the client"
}
