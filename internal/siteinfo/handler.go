package siteinfo

import (
	"github.com/gin-gonic/gin"

	"github.com/randopony/backend/pkg/response"
)

// Handler handles admin site info endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a site info handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// SetLinkRequest is the body for PUT /admin/links/:key.
type SetLinkRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// SetLink handles PUT /admin/links/:key.
func (h *Handler) SetLink(c *gin.Context) {
	var req SetLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	key := c.Param("key")
	if err := h.repo.SetLink(c.Request.Context(), key, req.URL); err != nil {
		response.Internal(c, "failed to set link")
		return
	}
	response.OK(c, gin.H{"key": key, "url": req.URL})
}

// SetEmailAddressRequest is the body for PUT /admin/email-addresses/:key.
type SetEmailAddressRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SetEmailAddress handles PUT /admin/email-addresses/:key.
func (h *Handler) SetEmailAddress(c *gin.Context) {
	var req SetEmailAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	key := c.Param("key")
	if err := h.repo.SetEmailAddress(c.Request.Context(), key, req.Email); err != nil {
		response.Internal(c, "failed to set email address")
		return
	}
	response.OK(c, gin.H{"key": key, "email": req.Email})
}
