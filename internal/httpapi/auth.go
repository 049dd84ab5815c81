package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/internal/auth"
	"geoattend/internal/user"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	auth.TokenPair
	User *user.User `json:"user"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	u, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, u)
}

func (h *handler) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}

	claims, err := h.Tokens.Parse(req.RefreshToken, auth.TypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	u, err := h.Users.GetUser(c.Request.Context(), claims.UserID())
	if errors.Is(err, user.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	h.issue(c, u)
}

func (h *handler) issue(c *gin.Context, u *user.User) {
	pair, err := h.Tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{TokenPair: pair, User: u})
}

func (h *handler) me(c *gin.Context) {
	u, err := h.Users.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func currentUserID(c *gin.Context) string {
	claims, _ := auth.ClaimsFrom(c)
	return claims.UserID()
}
