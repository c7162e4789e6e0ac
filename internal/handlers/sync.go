package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/services"
)

type SyncHandler struct {
	sync services.PageSyncService
}

func NewSyncHandler(sync services.PageSyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

type syncPushRequest struct {
	BookID uuid.UUID `json:"book_id" binding:"required"`
	Page   int       `json:"page" binding:"required"`
}

// POST /api/sync
func (h *SyncHandler) Push(c *gin.Context) {
	var req syncPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	code, err := h.sync.Push(c.Request.Context(), req.BookID, req.Page)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"code": code})
}

// GET /api/sync/:code
func (h *SyncHandler) Pop(c *gin.Context) {
	payload, err := h.sync.Pop(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"book_id": payload.BookID, "page": payload.Page})
}
