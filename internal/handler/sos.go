package handler

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"RescueHub/internal/models"
	"RescueHub/pkg/response"
	"RescueHub/pkg/websocket"
)

const maxMediaSize = 20 << 20 // 20 MiB per upload

func (h *Handlers) CreateAlert(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var in models.AlertCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid alert payload: "+err.Error())
		return
	}
	alert, err := models.CreateAlert(h.db, user, in)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.notifier != nil {
		notif := models.Notification{
			Type:    models.NotificationSOSCreated,
			Title:   "SOS принят",
			Message: fmt.Sprintf("Ваш сигнал %q зарегистрирован, оператор уведомлён", alert.Title),
			AlertID: &alert.ID,
		}
		event := &websocket.Event{Type: websocket.EventNotification, Payload: alert}
		go h.notifier.NotifyUser(user.ID, notif, event)
	}
	response.Created(c, "alert created", alert)
}

func (h *Handlers) ListAlerts(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	alerts, err := models.ListAlerts(h.db, user, models.AlertFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Skip:   intQuery(c, "skip", 0),
		Limit:  intQuery(c, "limit", 0),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", alerts)
}

func (h *Handlers) GetAlert(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	alert, err := models.GetAlert(h.db, user, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "ok", alert)
}

func (h *Handlers) UpdateAlert(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var in models.AlertUpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid update payload: "+err.Error())
		return
	}
	view, plan, err := models.UpdateAlert(h.db, user, c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.dispatch(plan)
	response.Success(c, "alert updated", view)
}

func (h *Handlers) DeleteAlert(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !h.requireAction(c, user, models.ActionAlertDelete) {
		return
	}
	if err := models.DeleteAlert(h.db, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, "alert deleted", nil)
}

// UploadAlertMedia stores a photo or voice file and appends its public
// URL to the alert.
func (h *Handlers) UploadAlertMedia(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if h.media == nil {
		response.Internal(c, "media storage is not configured")
		return
	}

	// Resolve the alert before touching the bucket so a bad id or a
	// foreign citizen upload cannot leave an orphan object behind.
	if _, err := models.GetAlert(h.db, user, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field is required")
		return
	}
	if file.Size > maxMediaSize {
		response.BadRequest(c, "file is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	key := fmt.Sprintf("alerts/%s/%d_%s%s",
		c.Param("id"), time.Now().Unix(), uuid.NewString()[:8], filepath.Ext(file.Filename))
	url, err := h.media.Write(c.Request.Context(), key, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		h.fail(c, err)
		return
	}

	alert, err := models.AppendAlertMedia(h.db, user, c.Param("id"), url)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, "media uploaded", gin.H{"url": url, "alert": alert})
}
