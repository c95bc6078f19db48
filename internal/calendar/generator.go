package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"brandforge/api_calendar/pkg/llm"
	"brandforge/api_calendar/pkg/logging"
)

// Stage 2 repair budget: the initial attempt plus one re-prompt.
const generatorMaxRepairs = 1

// Generator turns a validated calendar brief into a concrete posting
// schedule, either via the text-generation capability or deterministically.
type Generator struct {
	provider llm.Provider
	logger   logging.Logger
}

func NewGenerator(provider llm.Provider, logger logging.Logger) *Generator {
	return &Generator{provider: provider, logger: logger}
}

// GeneratorConfig carries scheduling inputs shared by both stage 2 paths.
type GeneratorConfig struct {
	// WeekStart overrides the schedule start; zero means next Monday.
	WeekStart time.Time
	Location  *time.Location
	// Now anchors the next-Monday computation; zero means time.Now.
	Now time.Time
}

// GeneratorReport describes stage 2 normalization work, for run diagnostics.
type GeneratorReport struct {
	Repaired                 bool
	ScheduledAtFilled        int
	RestoredInspirationSlots int
}

func (cfg GeneratorConfig) resolve() (time.Time, *time.Location) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	weekStart := cfg.WeekStart
	if weekStart.IsZero() {
		now := cfg.Now
		if now.IsZero() {
			now = time.Now()
		}
		weekStart = NextWeekStart(now, loc)
	}
	return weekStart, loc
}

// Run executes the LLM-backed stage 2 path.
func (g *Generator) Run(ctx context.Context, brief *CalendarBrief, cfg GeneratorConfig) (*ContentCalendar, GeneratorReport, error) {
	weekStart, loc := cfg.resolve()
	scaffold := AssignScheduledAt(brief.Slots, weekStart, loc)
	weekStartStr := weekStart.Format("2006-01-02")
	basePrompt := buildGeneratorPrompt(brief, scaffold, weekStartStr, loc.String())

	var report GeneratorReport
	var result ValidationResult
	previousOutput := ""

	for attempt := 0; attempt <= generatorMaxRepairs; attempt++ {
		prompt := basePrompt
		if attempt > 0 {
			prompt = buildGeneratorRepairPrompt(basePrompt, previousOutput, result.Errors)
		}

		text, err := g.provider.Complete(ctx, llm.Request{
			System: generatorSystemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			return nil, report, fmt.Errorf("stage 2 completion: %w", err)
		}
		previousOutput = text

		payload, err := extractJSONObject(text)
		if err != nil {
			return nil, report, err
		}
		parsed := &ContentCalendar{}
		if err := json.Unmarshal(payload, parsed); err != nil {
			return nil, report, fmt.Errorf("%w: %v", ErrUnparsableModelOutput, err)
		}
		fillCalendarDefaults(parsed, weekStartStr, loc.String())

		// Normalize before validating so mechanical omissions never burn
		// the repair budget.
		attemptReport := GeneratorReport{Repaired: attempt > 0}
		normalizeCalendar(parsed, brief, scaffold, &attemptReport)

		result = ValidateContentCalendar(parsed, brief.UsedPostIDs, len(brief.Slots))
		if result.Valid {
			return parsed, attemptReport, nil
		}
		report = attemptReport

		g.logger.WithFields(logging.Fields{
			"attempt": attempt + 1,
			"errors":  len(result.Errors),
		}).Warn("Content calendar failed validation")
	}

	return nil, report, fmt.Errorf("content calendar failed validation after repair: %s",
		strings.Join(result.Errors, "; "))
}

func fillCalendarDefaults(cal *ContentCalendar, weekStart, timezone string) {
	if cal.Schedule == nil {
		cal.Schedule = []ScheduleEntry{}
	}
	if cal.WeekStart == "" {
		cal.WeekStart = weekStart
	}
	if cal.Timezone == "" {
		cal.Timezone = timezone
	}
}

// normalizeCalendar repairs the model's common omissions against the brief
// and scaffold. Evidence presence always wins over a model-set status.
func normalizeCalendar(cal *ContentCalendar, brief *CalendarBrief, scaffold map[int]string, report *GeneratorReport) {
	slotsByIndex := make(map[int]*BriefSlot, len(brief.Slots))
	for i := range brief.Slots {
		slotsByIndex[brief.Slots[i].SlotIndex] = &brief.Slots[i]
	}

	for i := range cal.Schedule {
		entry := &cal.Schedule[i]

		if entry.SlotID == "" {
			entry.SlotID = uuid.New().String()
		}
		if entry.ScheduledAt == "" {
			if ts, ok := scaffold[entry.SlotIndex]; ok {
				entry.ScheduledAt = ts
				report.ScheduledAtFilled++
			}
		}

		if len(entry.InspirationPosts) == 0 {
			if slot, ok := slotsByIndex[entry.SlotIndex]; ok && len(slot.InspirationPosts) > 0 {
				entry.InspirationPosts = append([]InspirationRef(nil), slot.InspirationPosts...)
				report.RestoredInspirationSlots++
			}
		}

		if len(entry.InspirationPosts) == 0 {
			entry.Status = StatusBlocked
			entry.BlockReason = BlockReasonMissingInspiration
		} else if entry.Status == StatusBlocked {
			entry.Status = StatusReadyToGenerate
			entry.BlockReason = ""
		}
	}
}

// Deterministic production templates, keyed by objective.
var deterministicHooks = map[string]string{
	"Awareness":  "Open on the strongest visual from the reference posts, no intro text.",
	"Education":  "Open with the end result, then walk back through the steps.",
	"Engagement": "Open with the contrarian claim from the suggested hook.",
	"Conversion": "Open on the product in use within the first second.",
	"Retention":  "Open with a callback to the previous post in this series.",
}

var workflowsByContentType = map[string]string{
	"reel":     "short_video_v2",
	"video":    "short_video_v2",
	"duet":     "short_video_v2",
	"stitch":   "short_video_v2",
	"story":    "story_frames_v1",
	"carousel": "carousel_slides_v1",
	"post":     "static_post_v1",
}

var renderParamsByContentType = map[string]map[string]string{
	"reel":     {"aspectRatio": "9:16", "maxDurationSec": "45", "captions": "burned_in"},
	"video":    {"aspectRatio": "9:16", "maxDurationSec": "60", "captions": "burned_in"},
	"duet":     {"aspectRatio": "9:16", "maxDurationSec": "60", "layout": "split"},
	"stitch":   {"aspectRatio": "9:16", "maxDurationSec": "60", "leadInSec": "5"},
	"story":    {"aspectRatio": "9:16", "frames": "3"},
	"carousel": {"aspectRatio": "4:5", "slides": "6"},
	"post":     {"aspectRatio": "4:5"},
}

// RunDeterministic builds a calendar from the brief without a model call.
// Used whenever stage 1 fell back to deterministic synthesis; valid by
// construction.
func (g *Generator) RunDeterministic(brief *CalendarBrief, cfg GeneratorConfig) *ContentCalendar {
	weekStart, loc := cfg.resolve()
	scaffold := AssignScheduledAt(brief.Slots, weekStart, loc)

	cal := &ContentCalendar{
		WeekStart: weekStart.Format("2006-01-02"),
		Timezone:  loc.String(),
		Schedule:  make([]ScheduleEntry, 0, len(brief.Slots)),
	}

	for _, slot := range brief.Slots {
		hook := slot.SuggestedHook
		if hook == "" {
			hook = deterministicHooks[slot.Objective]
		}

		workflow, ok := workflowsByContentType[slot.ContentType]
		if !ok {
			workflow = "static_post_v1"
		}
		renderParams := renderParamsByContentType[slot.ContentType]
		if renderParams == nil {
			renderParams = map[string]string{"aspectRatio": "4:5"}
		}

		entry := ScheduleEntry{
			SlotID:           uuid.New().String(),
			SlotIndex:        slot.SlotIndex,
			Platform:         slot.Platform,
			ContentType:      slot.ContentType,
			Theme:            slot.Theme,
			Objective:        slot.Objective,
			ScheduledAt:      scaffold[slot.SlotIndex],
			InspirationPosts: append([]InspirationRef(nil), slot.InspirationPosts...),
			ProductionBrief: &ProductionBrief{
				Hook:      hook,
				Structure: fmt.Sprintf("Hook, %s body in 3 beats, close with the call to action", slot.Objective),
				Script: fmt.Sprintf("Beat 1: %s. Beat 2: develop the %q theme with one concrete example. Beat 3: call to action.",
					hook, slot.Theme),
				Caption: fmt.Sprintf("%s: %s. %s", slot.Theme, strings.ToLower(slot.Objective), slot.BriefConcept),
				DeliverableSpec: fmt.Sprintf("1x %s for %s", slot.ContentType, slot.Platform),
			},
			GenerationPlan: &GenerationPlan{
				Workflow: workflow,
				Steps: []string{
					"assemble_reference_pack",
					"draft_script",
					"produce_asset",
					"review_and_schedule",
				},
				RenderParams: renderParams,
			},
			Status: StatusReadyToGenerate,
		}
		if len(entry.InspirationPosts) == 0 {
			entry.Status = StatusBlocked
			entry.BlockReason = BlockReasonMissingInspiration
		}
		cal.Schedule = append(cal.Schedule, entry)
	}

	return cal
}
