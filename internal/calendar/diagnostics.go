package calendar

// RunDiagnostics records how much a pipeline run degraded from the clean
// path. It is assembled once per run and persisted with the run record.
type RunDiagnostics struct {
	Stage1Attempts                int      `json:"stage1Attempts"`
	Stage1UsedFallback            bool     `json:"stage1UsedFallback"`
	Stage1ValidationErrors        []string `json:"stage1ValidationErrors,omitempty"`
	Stage2Repaired                bool     `json:"stage2Repaired"`
	Stage2Deterministic           bool     `json:"stage2Deterministic"`
	ScheduledAtFilledFromScaffold int      `json:"scheduledAtFilledFromScaffold"`
	RestoredInspirationSlots      int      `json:"restoredInspirationSlots"`
	SlotIndexFallbacks            int      `json:"slotIndexFallbacks"`
	DroppedInvalidInspirationRefs int      `json:"droppedInvalidInspirationRefs"`
	ForcedBlockedForEvidence      int      `json:"forcedBlockedForEvidence"`
}

// Degraded reports whether the run needed any repair or fallback.
func (d RunDiagnostics) Degraded() bool {
	return d.Stage1Attempts > 1 ||
		d.Stage1UsedFallback ||
		d.Stage2Repaired ||
		d.ScheduledAtFilledFromScaffold > 0 ||
		d.RestoredInspirationSlots > 0 ||
		d.SlotIndexFallbacks > 0 ||
		d.DroppedInvalidInspirationRefs > 0 ||
		d.ForcedBlockedForEvidence > 0
}
