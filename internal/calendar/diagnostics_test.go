package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDegradedCleanRun(t *testing.T) {
	diag := RunDiagnostics{Stage1Attempts: 1}
	assert.False(t, diag.Degraded())
}

func TestDegradedDetectsEveryDegradationPath(t *testing.T) {
	cases := map[string]RunDiagnostics{
		"stage1 retries":       {Stage1Attempts: 2},
		"stage1 fallback":      {Stage1Attempts: 3, Stage1UsedFallback: true},
		"stage2 repair":        {Stage1Attempts: 1, Stage2Repaired: true},
		"scaffold fills":       {Stage1Attempts: 1, ScheduledAtFilledFromScaffold: 2},
		"restored inspiration": {Stage1Attempts: 1, RestoredInspirationSlots: 1},
		"slot index fallback":  {Stage1Attempts: 1, SlotIndexFallbacks: 1},
		"dropped refs":         {Stage1Attempts: 1, DroppedInvalidInspirationRefs: 1},
		"forced blocks":        {Stage1Attempts: 1, ForcedBlockedForEvidence: 1},
	}
	for name, diag := range cases {
		assert.True(t, diag.Degraded(), name)
	}
}

func TestDeterministicStage2AloneIsNotDegradation(t *testing.T) {
	// Deterministic stage 2 always follows a stage 1 fallback, which is what
	// actually marks the run degraded.
	diag := RunDiagnostics{Stage1Attempts: 1, Stage2Deterministic: true}
	assert.False(t, diag.Degraded())
}
