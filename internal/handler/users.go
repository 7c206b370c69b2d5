package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

func (h *Handlers) ListUsers(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionUserList) {
		return
	}
	users, err := models.ListUsers(h.db, c.Query("role"), intQuery(c, "skip", 0), intQuery(c, "limit", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", users)
}

func (h *Handlers) GetUser(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if actor.ID != id && !models.Allowed(actor.Role, models.ActionUserList) {
		response.Forbidden(c, "you may only view your own account")
		return
	}
	user, err := models.GetUser(h.db, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", user)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	var in models.UserUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid update payload: "+err.Error())
		return
	}
	user, err := models.UpdateUser(h.db, actor, c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "user updated", user)
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, actor, models.ActionUserDelete) {
		return
	}
	if err := models.DeleteUser(h.db, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "user deleted", nil)
}
