package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

// Dashboard returns the operations overview for the control room.
func (h *Handlers) Dashboard(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionAnalyticsView) {
		return
	}
	stats, err := models.GetAlertStats(h.db)
	if err != nil {
		h.fail(c, err)
		return
	}

	var teamsTotal, teamsAvailable int64
	h.db.Model(&models.RescueTeam{}).Count(&teamsTotal)
	h.db.Model(&models.RescueTeam{}).Where("status = ?", models.TeamStatusAvailable).Count(&teamsAvailable)
	var rescuers int64
	h.db.Model(&models.User{}).Where("role = ?", models.RoleRescuer).Count(&rescuers)

	response.Success(c, "ok", gin.H{
		"alerts": stats,
		"teams": gin.H{
			"total":     teamsTotal,
			"available": teamsAvailable,
		},
		"rescuers": rescuers,
	})
}
