package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/services"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type SummaryHandler struct {
	summaries services.SummaryService
	tts       services.TTSService
	jobs      services.JobService
}

func NewSummaryHandler(summaries services.SummaryService, tts services.TTSService, jobs services.JobService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries, tts: tts, jobs: jobs}
}

// GET /api/summary_versions/:id
func (h *SummaryHandler) GetVersion(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}
	version, err := h.summaries.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"version": version})
}

// DELETE /api/summary_versions/:id
func (h *SummaryHandler) DeleteVersion(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}
	if err := h.summaries.DeleteVersion(c.Request.Context(), versionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "deleted"})
}

// POST /api/summary_versions/:id/tts
func (h *SummaryHandler) GenerateTTS(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}
	if _, err := h.summaries.GetVersion(c.Request.Context(), versionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	job, err := h.jobs.Enqueue(c.Request.Context(), types.JobTypeTTSGenerate, versionID, nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": job.ID})
}

// GET /api/summary_versions/:id/audio
func (h *SummaryHandler) GetAudio(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_version_id", err)
		return
	}
	audio, err := h.tts.GetLatestAudio(c.Request.Context(), versionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if audio == nil {
		RespondError(c, http.StatusNotFound, "audio_not_found", apperr.ErrNotFound)
		return
	}
	if _, statErr := os.Stat(audio.FilePath); statErr != nil {
		RespondError(c, http.StatusNotFound, "audio_not_found", apperr.ErrNotFound)
		return
	}
	contentType := "audio/wav"
	if audio.Format == "mp3" {
		contentType = "audio/mpeg"
	}
	c.Header("Content-Type", contentType)
	c.FileAttachment(audio.FilePath, filepath.Base(audio.FilePath))
}
