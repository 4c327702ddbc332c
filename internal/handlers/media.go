package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fundraising-backend/internal/models"
	"fundraising-backend/internal/services"
	"fundraising-backend/internal/supabase"
)

// MediaAllocator is implemented by services.MediaSlotAllocator.
type MediaAllocator interface {
	IssueUploadSlot(projectID, requesterID uuid.UUID, fileExtension string) (*services.UploadSlot, error)
	ConfirmUpload(projectID, requesterID uuid.UUID, storagePath, altText string) (*models.MediaAttachment, error)
	DeleteAttachment(projectID, requesterID, mediaID uuid.UUID) error
	UpdateAltText(projectID, requesterID, mediaID uuid.UUID, altText string) error
	ListAttachments(projectID uuid.UUID) ([]models.MediaAttachment, error)
	PublicURL(storagePath string) string
}

type MediaHandler struct {
	allocator MediaAllocator
	realtime  *supabase.RealtimeClient
}

func NewMediaHandler(allocator MediaAllocator, realtime *supabase.RealtimeClient) *MediaHandler {
	return &MediaHandler{
		allocator: allocator,
		realtime:  realtime,
	}
}

// IssueUploadURL handles POST /projects/:project_id/media/upload-url.
// The client uploads the file bytes directly to storage with the
// returned URL, then confirms via ConfirmUpload.
func (h *MediaHandler) IssueUploadURL(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	var req models.IssueUploadSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	slot, err := h.allocator.IssueUploadSlot(projectID, userID, req.Extension)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UploadSlotResponse{
		UploadURL:   slot.UploadURL,
		StoragePath: slot.StoragePath,
		Token:       slot.Token,
		ExpiresAt:   slot.ExpiresAt,
	})
}

// ConfirmUpload handles POST /projects/:project_id/media.
func (h *MediaHandler) ConfirmUpload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	var req models.ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	attachment, err := h.allocator.ConfirmUpload(projectID, userID, req.StoragePath, req.AltText)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.realtime != nil {
		h.realtime.PublishProjectEvent(projectID, "media_changed",
			supabase.MediaChangedPayload(projectID, "confirmed"))
	}

	c.JSON(http.StatusOK, models.MediaResponse{
		MediaID:     attachment.ID.String(),
		Position:    attachment.Position,
		StoragePath: attachment.StoragePath,
		PublicURL:   h.allocator.PublicURL(attachment.StoragePath),
		AltText:     attachment.AltText,
		CreatedAt:   attachment.CreatedAt,
	})
}

// ListMedia handles GET /projects/:project_id/media.
func (h *MediaHandler) ListMedia(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	media, err := h.allocator.ListAttachments(projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]models.MediaResponse, len(media))
	for i, m := range media {
		responses[i] = models.MediaResponse{
			MediaID:     m.ID.String(),
			Position:    m.Position,
			StoragePath: m.StoragePath,
			PublicURL:   h.allocator.PublicURL(m.StoragePath),
			AltText:     m.AltText,
			CreatedAt:   m.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, models.MediaListResponse{Media: responses})
}

// UpdateAltText handles PATCH /projects/:project_id/media/:media_id.
// Alt text is the only mutable attachment field.
func (h *MediaHandler) UpdateAltText(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid media id"})
		return
	}

	var req models.UpdateAltTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	if err := h.allocator.UpdateAltText(projectID, userID, mediaID, req.AltText); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMedia handles DELETE /projects/:project_id/media/:media_id.
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid media id"})
		return
	}

	if err := h.allocator.DeleteAttachment(projectID, userID, mediaID); err != nil {
		writeError(c, err)
		return
	}

	if h.realtime != nil {
		h.realtime.PublishProjectEvent(projectID, "media_changed",
			supabase.MediaChangedPayload(projectID, "deleted"))
	}

	c.Status(http.StatusNoContent)
}
