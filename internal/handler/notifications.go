package handler

import (
	"github.com/gin-gonic/gin"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
)

func (h *Handlers) ListNotifications(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	items, err := models.ListNotifications(h.db, user.ID,
		c.Query("unread_only") == "true", intQuery(c, "skip", 0), intQuery(c, "limit", 0))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", items)
}

func (h *Handlers) UnreadCount(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	count, err := models.UnreadCount(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"unread_count": count})
}

func (h *Handlers) GetNotification(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	n, err := models.GetNotification(h.db, user.ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", n)
}

func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	n, err := models.MarkNotificationRead(h.db, user.ID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "marked read", n)
}

func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	updated, err := models.MarkAllNotificationsRead(h.db, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "marked all read", gin.H{"updated": updated})
}

func (h *Handlers) DeleteNotification(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := models.DeleteNotification(h.db, user.ID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "notification deleted", nil)
}
