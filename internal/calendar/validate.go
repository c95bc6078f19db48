package calendar

import (
	"fmt"
	"time"
)

// ValidationResult collects every violation found in a document so a single
// repair round can address all of them.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

type briefRef struct {
	source string
	ref    InspirationRef
}

// ValidateCalendarBrief checks a stage 1 brief against the input post set:
// non-empty slots, every inspiration/evidence/mention reference resolving to
// a real post with a byte-identical URL, and usedPostIds covering every
// referenced id. Pure and order-independent.
func ValidateCalendarBrief(brief *CalendarBrief, inputPosts []Post) ValidationResult {
	var errs []string
	if brief == nil {
		return ValidationResult{Errors: []string{"brief is missing"}}
	}
	if len(brief.Slots) == 0 {
		errs = append(errs, "brief has no slots")
	}

	postsByID := make(map[string]Post, len(inputPosts))
	for _, post := range inputPosts {
		postsByID[post.PostID] = post
	}
	used := make(map[string]struct{}, len(brief.UsedPostIDs))
	for _, id := range brief.UsedPostIDs {
		used[id] = struct{}{}
	}

	for _, entry := range collectBriefRefs(brief) {
		id := entry.ref.PostID
		if id == "" {
			errs = append(errs, fmt.Sprintf("%s: inspiration reference has empty postId", entry.source))
			continue
		}
		post, ok := postsByID[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: postId %q does not exist in the input posts", entry.source, id))
			continue
		}
		if entry.ref.PostURL != post.PostURL {
			errs = append(errs, fmt.Sprintf("%s: postUrl %q for postId %q does not match the input post url %q", entry.source, entry.ref.PostURL, id, post.PostURL))
		}
		if _, ok := used[id]; !ok {
			errs = append(errs, fmt.Sprintf("%s: postId %q is referenced but missing from usedPostIds", entry.source, id))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func collectBriefRefs(brief *CalendarBrief) []briefRef {
	var refs []briefRef
	for key, rationale := range brief.RationaleByType {
		for _, ref := range rationale.Evidence {
			refs = append(refs, briefRef{source: fmt.Sprintf("rationaleByType[%s]", key), ref: ref})
		}
	}
	for i, theme := range brief.WeeklyThemes {
		for _, ref := range theme.Evidence {
			refs = append(refs, briefRef{source: fmt.Sprintf("weeklyThemes[%d]", i), ref: ref})
		}
	}
	for i, slot := range brief.Slots {
		for _, ref := range slot.InspirationPosts {
			refs = append(refs, briefRef{source: fmt.Sprintf("slots[%d]", i), ref: ref})
		}
	}
	for i, mention := range brief.Mentions {
		for _, ref := range mention.Evidence {
			refs = append(refs, briefRef{source: fmt.Sprintf("mentions[%d]", i), ref: ref})
		}
	}
	return refs
}

// ValidateContentCalendar checks a stage 2 calendar against the stage 1 brief
// it was generated from: same slot cardinality, well-formed entries, blocked
// status paired with a reason, and no inspiration post outside the brief's
// declared usedPostIds.
func ValidateContentCalendar(cal *ContentCalendar, stage1UsedPostIDs []string, stage1SlotCount int) ValidationResult {
	var errs []string
	if cal == nil {
		return ValidationResult{Errors: []string{"calendar is missing"}}
	}
	if len(cal.Schedule) != stage1SlotCount {
		errs = append(errs, fmt.Sprintf("schedule has %d entries, brief has %d slots", len(cal.Schedule), stage1SlotCount))
	}

	used := make(map[string]struct{}, len(stage1UsedPostIDs))
	for _, id := range stage1UsedPostIDs {
		used[id] = struct{}{}
	}

	seenSlotIDs := make(map[string]int, len(cal.Schedule))
	for i, entry := range cal.Schedule {
		if entry.SlotID == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing slotId", i))
		} else if prev, dup := seenSlotIDs[entry.SlotID]; dup {
			errs = append(errs, fmt.Sprintf("schedule[%d]: slotId %q duplicates schedule[%d]", i, entry.SlotID, prev))
		} else {
			seenSlotIDs[entry.SlotID] = i
		}
		if entry.SlotIndex < 0 {
			errs = append(errs, fmt.Sprintf("schedule[%d]: invalid slotIndex %d", i, entry.SlotIndex))
		}
		if entry.Platform == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing platform", i))
		}
		if entry.ContentType == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing contentType", i))
		}
		if entry.ScheduledAt == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing scheduledAt", i))
		} else if _, err := ParseScheduledAt(entry.ScheduledAt); err != nil {
			errs = append(errs, fmt.Sprintf("schedule[%d]: scheduledAt %q is not a valid datetime", i, entry.ScheduledAt))
		}
		if entry.ProductionBrief == nil {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing productionBrief", i))
		}
		if entry.GenerationPlan == nil {
			errs = append(errs, fmt.Sprintf("schedule[%d]: missing generationPlan", i))
		}

		blocked := entry.Status == StatusBlocked
		if blocked && entry.BlockReason == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d]: blocked without a blockReason", i))
		}
		if !blocked && len(entry.InspirationPosts) == 0 {
			errs = append(errs, fmt.Sprintf("schedule[%d]: no inspiration posts and not blocked", i))
		}

		for _, ref := range entry.InspirationPosts {
			if _, ok := used[ref.PostID]; !ok {
				errs = append(errs, fmt.Sprintf("schedule[%d]: inspiration postId %q was not declared in the brief's usedPostIds", i, ref.PostID))
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

var scheduledAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseScheduledAt parses the datetime formats models actually emit.
func ParseScheduledAt(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range scheduledAtLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
