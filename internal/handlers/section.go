package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/services"
	"github.com/pagetone/pagetone-backend/internal/types"
)

type SectionHandler struct {
	sections  services.SectionService
	summaries services.SummaryService
	jobs      services.JobService
}

func NewSectionHandler(sections services.SectionService, summaries services.SummaryService, jobs services.JobService) *SectionHandler {
	return &SectionHandler{sections: sections, summaries: summaries, jobs: jobs}
}

// GET /api/sections/:id
func (h *SectionHandler) Get(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_section_id", err)
		return
	}
	section, err := h.sections.Get(c.Request.Context(), sectionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"section": section})
}

// POST /api/sections/:id/summaries/generate?recursive=true
func (h *SectionHandler) GenerateSummary(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_section_id", err)
		return
	}
	if _, err := h.sections.Get(c.Request.Context(), sectionID); err != nil {
		RespondServiceError(c, err)
		return
	}
	recursive, _ := strconv.ParseBool(c.Query("recursive"))
	job, err := h.jobs.Enqueue(c.Request.Context(), types.JobTypeSummaryGenerate, sectionID, map[string]interface{}{
		"recursive": recursive,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"job_id": job.ID})
}

// GET /api/sections/:id/summary_versions
func (h *SectionHandler) ListSummaryVersions(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_section_id", err)
		return
	}
	versions, err := h.summaries.ListVersions(c.Request.Context(), sectionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

// GET /api/sections/:id/assets?recursive=true
func (h *SectionHandler) ListAssets(c *gin.Context) {
	sectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_section_id", err)
		return
	}
	recursive, _ := strconv.ParseBool(c.Query("recursive"))
	assets, err := h.sections.Assets(c.Request.Context(), sectionID, recursive)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assets": assets})
}
