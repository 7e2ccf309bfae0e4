package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"haaziri/internal/admin"
	"haaziri/internal/auth"
	"haaziri/internal/camera"
)

// ---------- Admin ----------

type loginRequest struct {
	Passcode string `json:"passcode"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.app.Login(c.Request.Context(), req.Passcode); err != nil {
		fail(c, adminStatus(err), admin.Message(err))
		return
	}
	tok, err := auth.Issue("kiosk", auth.RoleAdmin, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.SessionTTL)
	if err != nil {
		log.Printf("token issue failed: %v", err)
		fail(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     tok.Value,
		"expiresAt": tok.Expires.Unix(),
		"status":    h.app.Admin.Status(),
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.app.Logout(c.Request.Context()); err != nil && !errors.Is(err, camera.ErrSuperseded) {
		log.Printf("camera restart after logout: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"screen": h.app.Screen(), "kiosk": h.app.Kiosk.View()})
}

func (h *Handler) AdminStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Admin.Status())
}

func (h *Handler) ListRecords(c *gin.Context) {
	listing, err := h.app.Admin.ListFiltered(c.Query("q"))
	if err != nil {
		fail(c, adminStatus(err), admin.Message(err))
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) RecordPhoto(c *gin.Context) {
	uri, err := h.app.Admin.Photo(c.Param("id"))
	if err != nil {
		fail(c, adminStatus(err), admin.Message(err))
		return
	}
	writePhoto(c, uri)
}

func (h *Handler) ClearRecords(c *gin.Context) {
	confirmed := c.Query("confirm") == "true"
	if err := h.app.Admin.ClearAll(c.Request.Context(), confirmed); err != nil {
		fail(c, adminStatus(err), admin.Message(err))
		return
	}
	c.JSON(http.StatusOK, h.app.Admin.Status())
}

// Sync answers with the dashboard status alongside any error so the page
// can follow a switch to the settings panel.
func (h *Handler) Sync(c *gin.Context) {
	if err := h.app.Admin.Sync(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(adminStatus(err), gin.H{"error": admin.Message(err), "status": h.app.Admin.Status()})
		return
	}
	c.JSON(http.StatusOK, h.app.Admin.Status())
}

func (h *Handler) OpenSettings(c *gin.Context) {
	h.respond(c, h.app.Admin.OpenSettings())
}

type draftRequest struct {
	URL string `json:"url"`
}

func (h *Handler) EditDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(c, h.app.Admin.EditDraft(req.URL))
}

func (h *Handler) SaveSettings(c *gin.Context) {
	h.respond(c, h.app.Admin.SaveSettings(c.Request.Context()))
}

func (h *Handler) CloseSettings(c *gin.Context) {
	h.respond(c, h.app.Admin.CloseSettings())
}

func (h *Handler) respond(c *gin.Context, err error) {
	if err != nil {
		fail(c, adminStatus(err), admin.Message(err))
		return
	}
	c.JSON(http.StatusOK, h.app.Admin.Status())
}

func adminStatus(err error) int {
	switch {
	case errors.Is(err, admin.ErrIncorrectPassword), errors.Is(err, admin.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, admin.ErrNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, admin.ErrNoEndpoint), errors.Is(err, admin.ErrNoRecords):
		return http.StatusConflict
	case errors.Is(err, admin.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, admin.ErrSyncFailed):
		return http.StatusBadGateway
	default:
		log.Printf("admin action failed: %v", err)
		return http.StatusInternalServerError
	}
}
