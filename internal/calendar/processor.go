package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"brandforge/api_calendar/pkg/llm"
	"brandforge/api_calendar/pkg/logging"
)

// Stage 1 repair budget: the initial attempt plus two re-prompts.
const processorMaxRepairs = 2

// Processor turns aggregated research context into a calendar brief via the
// text-generation capability, with a bounded repair loop and a deterministic
// fallback for the empty-slots failure mode.
type Processor struct {
	provider llm.Provider
	logger   logging.Logger
}

func NewProcessor(provider llm.Provider, logger logging.Logger) *Processor {
	return &Processor{provider: provider, logger: logger}
}

// ProcessorOptions carries per-run knobs for stage 1.
type ProcessorOptions struct {
	DurationDays int
}

// ProcessorReport describes how stage 1 went, for run diagnostics.
type ProcessorReport struct {
	Attempts         int
	UsedFallback     bool
	ValidationErrors []string
}

// Run executes stage 1. The returned brief is guaranteed to pass
// ValidateCalendarBrief against input.Posts.
func (p *Processor) Run(ctx context.Context, input *ProcessorInput, opts ProcessorOptions) (*CalendarBrief, ProcessorReport, error) {
	days := ClampDurationDays(opts.DurationDays)
	basePrompt := buildProcessorPrompt(input, days)

	var report ProcessorReport
	var brief *CalendarBrief
	var result ValidationResult
	previousOutput := ""

	for attempt := 0; attempt <= processorMaxRepairs; attempt++ {
		report.Attempts++
		prompt := basePrompt
		if attempt > 0 {
			prompt = buildProcessorRepairPrompt(basePrompt, previousOutput, result.Errors)
		}

		text, err := p.provider.Complete(ctx, llm.Request{
			System: processorSystemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			return nil, report, fmt.Errorf("stage 1 completion: %w", err)
		}
		previousOutput = text

		payload, err := extractJSONObject(text)
		if err != nil {
			return nil, report, err
		}
		parsed := &CalendarBrief{}
		if err := json.Unmarshal(payload, parsed); err != nil {
			return nil, report, fmt.Errorf("%w: %v", ErrUnparsableModelOutput, err)
		}
		normalizeBrief(parsed)

		result = ValidateCalendarBrief(parsed, input.Posts)
		if result.Valid {
			return parsed, report, nil
		}
		brief = parsed

		p.logger.WithFields(logging.Fields{
			"attempt": report.Attempts,
			"errors":  len(result.Errors),
		}).Warn("Calendar brief failed validation")
	}

	report.ValidationErrors = result.Errors

	// The empty-slots failure mode degrades to deterministic synthesis
	// instead of failing the whole run.
	if len(brief.Slots) == 0 && len(input.Posts) > 0 {
		p.logger.WithField("attempts", report.Attempts).
			Warn("Model produced no valid slots, building deterministic fallback brief")
		report.UsedFallback = true
		return BuildFallbackBrief(input, days), report, nil
	}

	return nil, report, fmt.Errorf("calendar brief failed validation after %d attempts: %s",
		report.Attempts, strings.Join(result.Errors, "; "))
}

// normalizeBrief coerces fields the model sometimes omits.
func normalizeBrief(brief *CalendarBrief) {
	if brief.Slots == nil {
		brief.Slots = []BriefSlot{}
	}
	if brief.UsedPostIDs == nil {
		brief.UsedPostIDs = []string{}
	}
	for i := range brief.Slots {
		if brief.Slots[i].InspirationPosts == nil {
			brief.Slots[i].InspirationPosts = []InspirationRef{}
		}
	}
}
