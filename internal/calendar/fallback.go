package calendar

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Deterministic brief synthesis, used when the model cannot produce any
// structurally valid slot set. Every slot it emits carries at least one
// inspiration post, so the result always passes brief validation.

var (
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	handlePattern = regexp.MustCompile(`@\w+`)
	tokenPattern  = regexp.MustCompile(`[a-z0-9]+`)
	digitsPattern = regexp.MustCompile(`\d{2,}`)
)

var stopWords = map[string]struct{}{
	"about": {}, "after": {}, "again": {}, "also": {}, "been": {}, "before": {},
	"being": {}, "best": {}, "could": {}, "does": {}, "dont": {}, "ever": {},
	"every": {}, "from": {}, "have": {}, "here": {}, "into": {}, "just": {},
	"like": {}, "link": {}, "more": {}, "most": {}, "much": {}, "need": {},
	"only": {}, "other": {}, "over": {}, "really": {}, "some": {}, "than": {},
	"that": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {},
	"this": {}, "today": {}, "very": {}, "want": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "will": {}, "with": {}, "would": {},
	"your": {},
}

var genericKeywords = []string{"content", "community", "growth", "storytelling", "momentum"}

var fallbackThemes = []string{
	"Behind the Scenes",
	"Community Wins",
	"Product in Action",
	"Quick Tips",
	"Trend Watch",
}

var objectiveCycle = []string{"Awareness", "Education", "Engagement", "Conversion", "Retention"}

var contentTypePools = map[string][]string{
	PlatformInstagram: {"reel", "carousel", "story"},
	PlatformTikTok:    {"video", "duet", "stitch"},
}

var defaultContentTypePool = []string{"post", "video"}

var hookTemplates = map[string]string{
	"Awareness":  "The %s move nobody in your feed is talking about",
	"Education":  "Three things we learned about %s the hard way",
	"Engagement": "Hot take: most %s advice is backwards",
	"Conversion": "Here is exactly how we approach %s, start to finish",
	"Retention":  "If you have been following our %s journey, this one is for you",
}

var ctaTemplates = map[string]string{
	"Awareness":  "Share this with someone who needs to see it.",
	"Education":  "Save this for the next time you plan %s content.",
	"Engagement": "Disagree? Tell us why in the comments.",
	"Conversion": "DM us the word %q to get the full breakdown.",
	"Retention":  "Follow along, part two drops later this week.",
}

// engagementScore ranks posts within a platform.
func engagementScore(p Post) float64 {
	return float64(p.Likes) + 2*float64(p.Comments) + 0.1*float64(p.Views)
}

// extractKeywords builds a caption keyword frequency table. URLs, handles,
// stop words, short/long tokens and number-heavy tokens are dropped. Returns
// a fixed generic list when nothing survives.
func extractKeywords(posts []Post) []string {
	freq := make(map[string]int)
	for _, post := range posts {
		caption := strings.ToLower(post.Caption)
		caption = urlPattern.ReplaceAllString(caption, " ")
		caption = handlePattern.ReplaceAllString(caption, " ")
		for _, token := range tokenPattern.FindAllString(caption, -1) {
			if len(token) < 4 || len(token) > 15 {
				continue
			}
			if digitsPattern.MatchString(token) {
				continue
			}
			if _, stop := stopWords[token]; stop {
				continue
			}
			freq[token]++
		}
	}
	if len(freq) == 0 {
		return genericKeywords
	}

	keywords := make([]string, 0, len(freq))
	for token := range freq {
		keywords = append(keywords, token)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if len(keywords) > 12 {
		keywords = keywords[:12]
	}
	return keywords
}

// themeKeyword picks the templating keyword for a theme: the first usable
// token of the theme itself, else the top caption keyword.
func themeKeyword(theme string, keywords []string) string {
	for _, token := range tokenPattern.FindAllString(strings.ToLower(theme), -1) {
		if len(token) >= 4 {
			if _, stop := stopWords[token]; !stop {
				return token
			}
		}
	}
	if len(keywords) > 0 {
		return keywords[0]
	}
	return genericKeywords[0]
}

func themePool(input *ProcessorInput) []string {
	themes := make([]string, 0, len(input.Pillars))
	for _, pillar := range input.Pillars {
		if strings.TrimSpace(pillar.Name) != "" {
			themes = append(themes, pillar.Name)
		}
	}
	if len(themes) == 0 {
		return fallbackThemes
	}
	return themes
}

// activePlatforms lists the platforms that actually have posts, in a stable
// order. A handle with no collected posts cannot yield inspiration, so it is
// not assigned slots.
func activePlatforms(byPlatform map[string][]Post) []string {
	platforms := make([]string, 0, len(byPlatform))
	for platform, posts := range byPlatform {
		if len(posts) > 0 {
			platforms = append(platforms, platform)
		}
	}
	sort.Strings(platforms)
	return platforms
}

func inspirationFromPost(post Post, reasonType, reason string) InspirationRef {
	return InspirationRef{
		PostID:      post.PostID,
		Handle:      post.Handle,
		PostURL:     post.PostURL,
		ReasonType:  reasonType,
		Reason:      reason,
		MetricsUsed: []string{"likes", "comments", "views"},
	}
}

// BuildFallbackBrief synthesizes a valid brief from the input alone. Given
// durationDays = N and at least one post it produces exactly N slots, each
// with at least one inspiration post.
func BuildFallbackBrief(input *ProcessorInput, durationDays int) *CalendarBrief {
	keywords := extractKeywords(input.Posts)
	themes := themePool(input)

	byPlatform := make(map[string][]Post)
	for _, post := range input.Posts {
		byPlatform[post.Platform] = append(byPlatform[post.Platform], post)
	}
	for platform := range byPlatform {
		posts := byPlatform[platform]
		sort.SliceStable(posts, func(i, j int) bool {
			return engagementScore(posts[i]) > engagementScore(posts[j])
		})
		byPlatform[platform] = posts
	}
	platforms := activePlatforms(byPlatform)

	brief := &CalendarBrief{Slots: make([]BriefSlot, 0, durationDays)}
	usedIDs := make(map[string]struct{})

	for i := 0; i < durationDays; i++ {
		platform := platforms[i%len(platforms)]
		ranked := byPlatform[platform]
		theme := themes[i%len(themes)]
		objective := objectiveCycle[i%len(objectiveCycle)]
		keyword := themeKeyword(theme, keywords)

		pool := contentTypePools[platform]
		if len(pool) == 0 {
			pool = defaultContentTypePool
		}
		contentType := pool[i%len(pool)]

		primary := ranked[0]
		inspiration := []InspirationRef{
			inspirationFromPost(primary, "top_performer",
				fmt.Sprintf("Highest engagement %s post for @%s", platform, primary.Handle)),
		}
		// A secondary reference every third slot widens the evidence base.
		if (i+1)%3 == 0 && len(ranked) > 1 {
			secondary := ranked[1]
			inspiration = append(inspiration,
				inspirationFromPost(secondary, "format_reference",
					fmt.Sprintf("Second strongest %s post, use for format contrast", platform)))
		}
		for _, ref := range inspiration {
			usedIDs[ref.PostID] = struct{}{}
		}

		hook := fmt.Sprintf(hookTemplates[objective], keyword)
		cta := ctaTemplates[objective]
		if strings.Contains(cta, "%") {
			cta = fmt.Sprintf(cta, keyword)
		}

		brief.Slots = append(brief.Slots, BriefSlot{
			SlotIndex:    i,
			Platform:     platform,
			ContentType:  contentType,
			Theme:        theme,
			Objective:    objective,
			BriefConcept: fmt.Sprintf("%s %s leaning on the %q theme, anchored on proven high-engagement posts.", objective, contentType, theme),
			InspirationPosts: inspiration,
			SuggestedHook:    hook,
			RequiredInputs:   []string{"brand assets", "approved product shots"},
			OriginalityRules: []string{
				"Reference the inspiration posts for format and pacing only",
				"Never copy caption text verbatim",
			},
			NotesForGenerator: buildEvidenceNotes(inspiration, cta),
		})
	}

	brief.UsedPostIDs = make([]string, 0, len(usedIDs))
	for id := range usedIDs {
		brief.UsedPostIDs = append(brief.UsedPostIDs, id)
	}
	sort.Strings(brief.UsedPostIDs)

	return brief
}

func buildEvidenceNotes(refs []InspirationRef, cta string) string {
	var b strings.Builder
	b.WriteString("Evidence:\n")
	for _, ref := range refs {
		fmt.Fprintf(&b, "- %s (%s): %s\n", ref.PostID, ref.PostURL, ref.Reason)
	}
	fmt.Fprintf(&b, "Suggested CTA: %s", cta)
	return b.String()
}
