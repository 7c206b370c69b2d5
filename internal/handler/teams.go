package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

func (h *Handlers) CreateTeam(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionTeamManage) {
		return
	}
	var in models.TeamCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid team payload: "+err.Error())
		return
	}
	team, err := models.CreateTeam(h.db, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, "team created", team)
}

func (h *Handlers) ListTeams(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	teams, err := models.ListTeams(h.db, c.Query("status"), c.Query("type"),
		intQuery(c, "skip", 0), intQuery(c, "limit", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", teams)
}

func (h *Handlers) GetTeam(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	team, err := models.GetTeamView(h.db, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", team)
}

func (h *Handlers) UpdateTeam(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var in models.TeamUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid update payload: "+err.Error())
		return
	}
	team, err := models.UpdateTeam(h.db, user, c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "team updated", team)
}

func (h *Handlers) DeleteTeam(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionTeamDelete) {
		return
	}
	if err := models.DeleteTeam(h.db, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "team deleted", nil)
}
