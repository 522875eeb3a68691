// Package httpapi exposes the server's services over a JSON HTTP API. It is
// the single transport: authentication, the hosted entry table, and evidence
// presigning all live under /api.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/dmitrijs2005/cpdvault/internal/logging"
	"github.com/dmitrijs2005/cpdvault/internal/server/models"
	"github.com/dmitrijs2005/cpdvault/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UserService covers the auth operations the API exposes.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	VerifyAccessToken(tokenString string) (string, error)
}

// EntryService covers the entry table and evidence presigning operations.
type EntryService interface {
	Upsert(ctx context.Context, userID string, entry *models.Entry) error
	Get(ctx context.Context, userID, id string) (*models.Entry, error)
	List(ctx context.Context, userID string) ([]*models.Entry, error)
	Delete(ctx context.Context, userID, id string) error
	GetPresignedPutUrl(ctx context.Context) (string, string, error)
	GetPresignedGetUrl(ctx context.Context, key string) (string, error)
}

type Handlers struct {
	log     logging.Logger
	users   UserService
	entries EntryService
}

func NewHandlers(log logging.Logger, users UserService, entries EntryService) *Handlers {
	return &Handlers{log: log, users: users, entries: entries}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	_, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "username and password are required"})
	default:
		h.log.Error(c.Request.Context(), "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.log.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pair, err := h.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
	default:
		h.log.Error(c.Request.Context(), "token refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) upsertEntry(c *gin.Context) {
	var dto entryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// the path segment is authoritative for the correlation id
	dto.ID = c.Param("id")
	if dto.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry id is required"})
		return
	}

	err := h.entries.Upsert(c.Request.Context(), currentUserID(c), dto.toModel())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, common.ErrorRemoteRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "entry id belongs to another user"})
	default:
		h.log.Error(c.Request.Context(), "entry upsert failed", "error", err, "id", dto.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) getEntry(c *gin.Context) {
	entry, err := h.entries.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, entryToDTO(entry))
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	default:
		h.log.Error(c.Request.Context(), "entry lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handlers) listEntries(c *gin.Context) {
	entries, err := h.entries.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error(c.Request.Context(), "entry list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entriesToDTO(entries)})
}

// deleteEntry is idempotent: deleting a row that is already gone succeeds.
func (h *Handlers) deleteEntry(c *gin.Context) {
	if err := h.entries.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		h.log.Error(c.Request.Context(), "entry delete failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) presignPut(c *gin.Context) {
	key, url, err := h.entries.GetPresignedPutUrl(c.Request.Context())
	if err != nil {
		h.log.Error(c.Request.Context(), "presign put failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

func (h *Handlers) presignGet(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	url, err := h.entries.GetPresignedGetUrl(c.Request.Context(), key)
	if err != nil {
		h.log.Error(c.Request.Context(), "presign get failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
