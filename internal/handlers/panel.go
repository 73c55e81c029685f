// internal/handlers/panel.go
package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/watch4deal/admin-backend/internal/draft"
	"github.com/watch4deal/admin-backend/internal/models"
	"github.com/watch4deal/admin-backend/internal/panel"
	"github.com/watch4deal/admin-backend/internal/storage"
	"github.com/watch4deal/admin-backend/internal/store"
	"github.com/watch4deal/admin-backend/internal/utils"
)

// maxImageBytes caps one uploaded image file.
const maxImageBytes = 10 * 1024 * 1024

type PanelHandler struct {
	panels *panel.Manager
}

type SwitchTabRequest struct {
	Kind string `json:"kind" validate:"required,oneof=watches testimonials"`
}

type SetFieldRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

type EditRequest struct {
	Kind string `json:"kind" validate:"required,oneof=watches testimonials"`
	ID   string `json:"id" validate:"required"`
}

func NewPanelHandler(panels *panel.Manager) *PanelHandler {
	return &PanelHandler{panels: panels}
}

func (h *PanelHandler) controller(c *gin.Context) (*panel.Controller, bool) {
	sessionID, exists := utils.GetSessionIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}

	ctrl, ok := h.panels.Get(sessionID)
	if !ok {
		utils.UnauthorizedResponse(c, "Session terminated")
		return nil, false
	}
	return ctrl, true
}

// GET /admin/panel
func (h *PanelHandler) GetPanel(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// PUT /admin/panel/tab
func (h *PanelHandler) SwitchTab(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req SwitchTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid payload", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := ctrl.SwitchKind(models.RecordKind(req.Kind)); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// PUT /admin/panel/draft/field
func (h *PanelHandler) SetDraftField(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid payload", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := ctrl.SetField(req.Name, req.Value); err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// POST /admin/panel/draft/images
func (h *PanelHandler) UploadDraftImages(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	fileHeaders := form.File["images"]
	if len(fileHeaders) == 0 {
		utils.BadRequestResponse(c, "No images attached", nil)
		return
	}

	var files []panel.FileUpload
	skipped := []string{}
	for _, fh := range fileHeaders {
		if fh.Size > maxImageBytes {
			skipped = append(skipped, fh.Filename)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			skipped = append(skipped, fh.Filename)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			skipped = append(skipped, fh.Filename)
			continue
		}

		files = append(files, panel.FileUpload{Name: fh.Filename, Data: data})
	}

	admitted := ctrl.AttachImages(files)
	utils.SuccessResponse(c, gin.H{
		"admitted": admitted,
		"skipped":  skipped,
		"panel":    ctrl.View(),
	})
}

// DELETE /admin/panel/draft/images/:index
func (h *PanelHandler) RemoveDraftImage(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid image index", nil)
		return
	}

	if err := ctrl.RemoveImage(index); err != nil {
		if errors.Is(err, draft.ErrIndexOutOfRange) {
			utils.BadRequestResponse(c, err.Error(), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// POST /admin/panel/edit
func (h *PanelHandler) Edit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid payload", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := ctrl.Edit(models.RecordKind(req.Kind), req.ID); err != nil {
		if errors.Is(err, panel.ErrRecordNotFound) {
			utils.NotFoundResponse(c, err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// POST /admin/panel/submit
func (h *PanelHandler) Submit(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	if err := ctrl.Submit(c.Request.Context()); err != nil {
		h.actionError(c, ctrl, err)
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

// DELETE /admin/records/:kind/:id
func (h *PanelHandler) DeleteRecord(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	kind, err := models.ParseRecordKind(c.Param("kind"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if err := ctrl.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
		h.actionError(c, ctrl, err)
		return
	}
	utils.SuccessResponse(c, ctrl.View())
}

func (h *PanelHandler) actionError(c *gin.Context, ctrl *panel.Controller, err error) {
	var uploadErr *storage.UploadError
	var writeErr *store.WriteError

	switch {
	case errors.Is(err, panel.ErrNotReady), errors.Is(err, panel.ErrActionInFlight):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, panel.ErrClosed):
		utils.UnauthorizedResponse(c, "Session closed")
	case errors.As(err, &uploadErr):
		utils.BadGatewayResponse(c, "UPLOAD_ERROR", ctrl.Message())
	case errors.As(err, &writeErr):
		utils.BadGatewayResponse(c, "WRITE_ERROR", ctrl.Message())
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
