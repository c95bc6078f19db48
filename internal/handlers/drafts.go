package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"brandforge/api_calendar/internal/calendar"
	"brandforge/api_calendar/internal/store"
	"brandforge/api_calendar/pkg/logging"
)

type DraftHandler struct {
	runs    RunReader
	writer  DraftWriter
	drafts  DraftStore
	logger  logging.Logger
	metrics *CalendarMetrics
}

func NewDraftHandler(runs RunReader, writer DraftWriter, drafts DraftStore, logger logging.Logger, metrics *CalendarMetrics) *DraftHandler {
	return &DraftHandler{
		runs:    runs,
		writer:  writer,
		drafts:  drafts,
		logger:  logger,
		metrics: metrics,
	}
}

type draftRequest struct {
	Instructions string `json:"instructions"`
}

// Generate writes a new draft version for a stored slot.
// POST /slots/:slotId/generate
func (h *DraftHandler) Generate(c *gin.Context) {
	slotID := c.Param("slotId")

	var req draftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.metrics.IncDraft("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request format",
			})
			return
		}
	}

	slot, err := h.runs.GetSlot(c.Request.Context(), slotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.metrics.IncDraft("not_found")
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Slot not found",
			})
			return
		}
		h.draftError(c, slotID, err, "Failed to load slot")
		return
	}

	if slot.Status == calendar.SlotStatusBlocked || slot.Status == calendar.StatusBlocked {
		h.metrics.IncDraft("blocked")
		c.JSON(http.StatusConflict, gin.H{
			"success":     false,
			"error":       "Slot is blocked and cannot be drafted",
			"blockReason": slot.BlockReason,
		})
		return
	}

	var brief calendar.ProductionBrief
	if len(slot.ProductionBrief) > 0 {
		if err := json.Unmarshal(slot.ProductionBrief, &brief); err != nil {
			h.draftError(c, slotID, err, "Slot has a corrupt production brief")
			return
		}
	}

	inspiration, err := h.runs.GetInspirationPosts(c.Request.Context(), slotID)
	if err != nil {
		h.draftError(c, slotID, err, "Failed to load inspiration posts")
		return
	}

	content, err := h.writer.Write(c.Request.Context(), calendar.DraftRequest{
		Platform:        slot.Platform,
		ContentType:     slot.ContentType,
		Theme:           slot.Theme,
		Objective:       slot.Objective,
		ProductionBrief: &brief,
		Inspiration:     inspiration,
		Instructions:    req.Instructions,
	})
	if err != nil {
		h.metrics.IncDraft("error")
		h.logger.WithFields(logging.Fields{
			"slot_id": slotID,
			"error":   err.Error(),
		}).Error("Draft generation failed")

		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Draft generation failed",
		})
		return
	}

	draft, err := h.drafts.InsertDraft(c.Request.Context(), slotID, content)
	if err != nil {
		h.draftError(c, slotID, err, "Failed to store draft")
		return
	}

	h.metrics.IncDraft("success")
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"draft":   draft,
	})
}

// List returns all draft versions of a slot, newest first.
// GET /slots/:slotId/drafts
func (h *DraftHandler) List(c *gin.Context) {
	slotID := c.Param("slotId")

	drafts, err := h.drafts.ListDrafts(c.Request.Context(), slotID)
	if err != nil {
		h.draftError(c, slotID, err, "Failed to list drafts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"drafts":  drafts,
	})
}

func (h *DraftHandler) draftError(c *gin.Context, slotID string, err error, message string) {
	h.metrics.IncDraft("error")
	h.logger.WithFields(logging.Fields{
		"slot_id": slotID,
		"error":   err.Error(),
	}).Error(message)

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   message,
	})
}
