package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user,omitempty"`
}

func (h *Handlers) issueTokens(user *models.User) (*tokenPair, error) {
	access, err := h.tokens.NewAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := h.tokens.NewRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer", User: user}, nil
}

func (h *Handlers) RegisterUser(c *gin.Context) {
	var in models.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid registration payload: "+err.Error())
		return
	}
	user, err := models.RegisterUser(h.db, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	pair, err := h.issueTokens(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, "registered", pair)
}

func (h *Handlers) Login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid login payload: "+err.Error())
		return
	}
	user, err := models.AuthenticateUser(h.db, in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	pair, err := h.issueTokens(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "logged in", pair)
}

func (h *Handlers) Refresh(c *gin.Context) {
	var in refreshRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid refresh payload: "+err.Error())
		return
	}
	claims, err := h.tokens.ParseRefresh(in.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}
	user, err := models.GetUser(h.db, claims.UserID)
	if err != nil {
		response.Unauthorized(c, "account no longer exists")
		return
	}
	if !user.IsActive {
		response.Forbidden(c, "account is deactivated")
		return
	}
	pair, err := h.issueTokens(user)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "token refreshed", pair)
}

func (h *Handlers) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	response.Success(c, "ok", user)
}
