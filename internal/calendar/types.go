package calendar

import "time"

// Platform names are lowercase wire values.
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// Slot statuses as they appear in generated calendar documents.
const (
	StatusReadyToGenerate = "ready_to_generate"
	StatusPlanned         = "planned"
	StatusBlocked         = "blocked"
)

// SlotStatusBlocked is the authoritative persisted form used when the final
// evidence gate blocks a slot.
const SlotStatusBlocked = "BLOCKED"

// BlockReasonMissingInspiration marks a slot whose inspiration references no
// longer resolve to any collected post.
const BlockReasonMissingInspiration = "MISSING_INSPIRATION_EVIDENCE"

// Post is a previously collected social post, the only admissible evidence
// for creative recommendations.
type Post struct {
	PostID   string `json:"postId"`
	Handle   string `json:"handle"`
	Platform string `json:"platform"`
	PostURL  string `json:"postUrl"`
	Caption  string `json:"caption,omitempty"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
	Views    int64  `json:"views"`
	Shares   int64  `json:"shares,omitempty"`
	PostedAt string `json:"postedAt,omitempty"`
}

// ClientProfile carries the client's active handles per platform and their
// planning timezone.
type ClientProfile struct {
	Name     string            `json:"name,omitempty"`
	Handles  map[string]string `json:"handles"`
	Timezone string            `json:"timezone,omitempty"`
}

type Pillar struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProcessorInput is the aggregated research context handed to stage 1. It is
// produced by the context builder, not owned by this package.
type ProcessorInput struct {
	ResearchJobID string        `json:"researchJobId"`
	Client        ClientProfile `json:"client"`
	Posts         []Post        `json:"posts"`
	Pillars       []Pillar      `json:"pillars,omitempty"`
	Gaps          []string      `json:"gaps,omitempty"`
	Opportunities []string      `json:"opportunities,omitempty"`
	DurationDays  int           `json:"durationDays"`
}

// InspirationRef cites a collected post as evidence for a recommendation.
// PostID must resolve to exactly one input post and PostURL must match that
// post's URL verbatim.
type InspirationRef struct {
	PostID      string   `json:"postId"`
	Handle      string   `json:"handle,omitempty"`
	PostURL     string   `json:"postUrl"`
	ReasonType  string   `json:"reasonType,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	MetricsUsed []string `json:"metricsUsed,omitempty"`
}

// BriefSlot is one planned content unit in a stage 1 brief.
type BriefSlot struct {
	SlotIndex         int              `json:"slotIndex"`
	Platform          string           `json:"platform"`
	ContentType       string           `json:"contentType"`
	Theme             string           `json:"theme,omitempty"`
	Objective         string           `json:"objective,omitempty"`
	BriefConcept      string           `json:"briefConcept,omitempty"`
	InspirationPosts  []InspirationRef `json:"inspirationPosts"`
	SuggestedHook     string           `json:"suggestedHook,omitempty"`
	RequiredInputs    []string         `json:"requiredInputs,omitempty"`
	OriginalityRules  []string         `json:"originalityRules,omitempty"`
	NotesForGenerator string           `json:"notesForGenerator,omitempty"`
}

type Rationale struct {
	Reason   string           `json:"reason,omitempty"`
	Evidence []InspirationRef `json:"evidence,omitempty"`
}

type WeeklyTheme struct {
	Week     int              `json:"week"`
	Theme    string           `json:"theme"`
	Evidence []InspirationRef `json:"evidence,omitempty"`
}

type Mention struct {
	Handle   string           `json:"handle"`
	Reason   string           `json:"reason,omitempty"`
	Evidence []InspirationRef `json:"evidence,omitempty"`
}

// CalendarBrief is the stage 1 output. UsedPostIDs declares the universe of
// every post referenced anywhere in the brief.
type CalendarBrief struct {
	Slots           []BriefSlot          `json:"slots"`
	UsedPostIDs     []string             `json:"usedPostIds"`
	RationaleByType map[string]Rationale `json:"rationaleByType,omitempty"`
	WeeklyThemes    []WeeklyTheme        `json:"weeklyThemes,omitempty"`
	Mentions        []Mention            `json:"mentions,omitempty"`
}

// ProductionBrief is the per-slot creative spec produced by stage 2.
type ProductionBrief struct {
	Hook            string `json:"hook,omitempty"`
	Structure       string `json:"structure,omitempty"`
	Script          string `json:"script,omitempty"`
	Caption         string `json:"caption,omitempty"`
	DeliverableSpec string `json:"deliverableSpec,omitempty"`
}

// GenerationPlan describes how a slot's asset gets produced.
type GenerationPlan struct {
	Workflow     string            `json:"workflow"`
	Steps        []string          `json:"steps"`
	RenderParams map[string]string `json:"renderParams,omitempty"`
}

// ScheduleEntry is one scheduled slot in a stage 2 calendar.
type ScheduleEntry struct {
	SlotID           string           `json:"slotId"`
	SlotIndex        int              `json:"slotIndex"`
	Platform         string           `json:"platform"`
	ContentType      string           `json:"contentType"`
	Theme            string           `json:"theme,omitempty"`
	Objective        string           `json:"objective,omitempty"`
	ScheduledAt      string           `json:"scheduledAt"`
	InspirationPosts []InspirationRef `json:"inspirationPosts"`
	ProductionBrief  *ProductionBrief `json:"productionBrief"`
	GenerationPlan   *GenerationPlan  `json:"generationPlan"`
	Status           string           `json:"status"`
	BlockReason      string           `json:"blockReason,omitempty"`
}

// ContentCalendar is the stage 2 output: one schedule entry per brief slot.
type ContentCalendar struct {
	WeekStart string          `json:"weekStart"`
	Timezone  string          `json:"timezone"`
	Schedule  []ScheduleEntry `json:"schedule"`
}

// ContentDraft is a rendered draft for a stored slot, versioned per slot.
type ContentDraft struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	Version   int       `json:"version"`
	Hook      string    `json:"hook,omitempty"`
	Script    string    `json:"script,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

var allowedDurations = []int{7, 14, 30, 90}

// ClampDurationDays snaps a requested horizon onto the supported set,
// defaulting to 14. Values between two supported horizons round down.
func ClampDurationDays(days int) int {
	if days <= 0 {
		return 14
	}
	clamped := allowedDurations[0]
	for _, d := range allowedDurations {
		if d <= days {
			clamped = d
		}
	}
	return clamped
}
