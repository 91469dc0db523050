package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/middleware"
	"room-reservation-api/internal/store"
)

const resetTokenTTLFallbackSeconds = 30 * 60

// AuthHandler implements the identity endpoints: login, refresh,
// register, forgot/reset password, and the "who am I" endpoint.
type AuthHandler struct {
	store     store.Store
	issuer    *auth.TokenIssuer
	tokens    auth.TokenStore
	directory *directory.Service
	resetTTL  time.Duration
}

func NewAuthHandler(st store.Store, issuer *auth.TokenIssuer, tokens auth.TokenStore, dir *directory.Service, resetTTL time.Duration) *AuthHandler {
	return &AuthHandler{store: st, issuer: issuer, tokens: tokens, directory: dir, resetTTL: resetTTL}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, apperr.New(apperr.Unauthenticated, "invalid email or password"))
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		respondError(c, err)
		return
	}
	pair, err := h.issuer.Issue(c.Request.Context(), user.ID, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken,
		TokenType: "Bearer", ExpiresIn: pair.ExpiresIn,
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.store.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		respondError(c, apperr.New(apperr.Conflict, "email already registered"))
		return
	}
	user, err := h.directory.Register(c.Request.Context(), req.Name, req.Surname, req.Email, req.Password, req.DepartmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.issuer.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken,
		TokenType: "Bearer", ExpiresIn: pair.ExpiresIn,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MeResponse{
		ID: user.ID, Email: user.Email, Name: user.Name, Surname: user.Surname,
		Role: string(user.Role), DepartmentID: user.DepartmentID,
	})
}

// ForgotPassword always returns 202 regardless of whether the email is
// registered, so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err == nil {
		token := uuid.NewString()
		ttl := resetTokenTTLFallbackSeconds
		if h.resetTTL > 0 {
			ttl = int(h.resetTTL.Seconds())
		}
		_ = h.tokens.Put(c.Request.Context(), "reset:"+token, formatID(user.ID), ttl)
	}
	c.Status(http.StatusAccepted)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	idStr, ok, err := h.tokens.TakeOnce(c.Request.Context(), "reset:"+req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperr.New(apperr.Unauthenticated, "reset token is invalid or has expired"))
		return
	}
	userID := parseID(idStr)
	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	user.PasswordHash = hash
	if err := h.store.UpdateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
