package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/repos"
)

type AssetHandler struct {
	assets repos.SectionAssetRepo
}

func NewAssetHandler(assets repos.SectionAssetRepo) *AssetHandler {
	return &AssetHandler{assets: assets}
}

// GET /api/assets/:id
func (h *AssetHandler) Get(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_asset_id", err)
		return
	}
	asset, err := h.assets.GetByID(c.Request.Context(), nil, assetID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if _, statErr := os.Stat(asset.FilePath); statErr != nil {
		RespondError(c, http.StatusNotFound, "asset_not_found", apperr.ErrNotFound)
		return
	}
	c.Header("Content-Type", "image/png")
	c.FileAttachment(asset.FilePath, filepath.Base(asset.FilePath))
}
