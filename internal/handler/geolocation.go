package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

const defaultSearchRadiusKm = 50.0

// NearestTeams lists available teams within a radius of a point,
// closest first.
func (h *Handlers) NearestTeams(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}

	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		response.BadRequest(c, "latitude is required")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		response.BadRequest(c, "longitude is required")
		return
	}
	radius := defaultSearchRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(c, "radius_km must be a number")
			return
		}
	}

	teams, err := models.NearestTeams(h.db, lat, lng, radius)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", teams)
}
