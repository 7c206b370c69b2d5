package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"RescueHub/internal/models"
	"RescueHub/pkg/ai"
	"RescueHub/pkg/auth"
	"RescueHub/pkg/errors"
	"RescueHub/pkg/logger"
	"RescueHub/pkg/middleware"
	"RescueHub/pkg/notification"
	"RescueHub/pkg/response"
	"RescueHub/pkg/storage"
	"RescueHub/pkg/websocket"
)

// Handlers carries the shared dependencies for every route.
type Handlers struct {
	db       *gorm.DB
	tokens   *auth.TokenManager
	hub      *websocket.Hub
	notifier *notification.Notifier
	ai       *ai.Service
	media    *storage.MediaStore
	limiter  *middleware.RateLimiter
}

func New(db *gorm.DB, tokens *auth.TokenManager, hub *websocket.Hub,
	notifier *notification.Notifier, aiService *ai.Service,
	media *storage.MediaStore, limiter *middleware.RateLimiter) *Handlers {
	return &Handlers{
		db:       db,
		tokens:   tokens,
		hub:      hub,
		notifier: notifier,
		ai:       aiService,
		media:    media,
		limiter:  limiter,
	}
}

// fail translates a domain error into the HTTP response. Unknown and
// wrapped infrastructure errors become a logged 500.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := errors.StatusOf(err)
	if status >= 500 {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.Internal(c, "internal server error")
		return
	}
	response.Fail(c, status, errors.GetMessage(err))
}

// currentUser loads the authenticated account or writes the failure.
func (h *Handlers) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := models.CurrentUser(c, h.db)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return user, true
}

// requireAction enforces one policy-table grant.
func (h *Handlers) requireAction(c *gin.Context, user *models.User, action models.Action) bool {
	if !models.Allowed(user.Role, action) {
		response.Forbidden(c, "insufficient role for this operation")
		return false
	}
	return true
}

// dispatch runs the notification fan-out without blocking the response.
func (h *Handlers) dispatch(plan *models.FanoutPlan) {
	if plan == nil || h.notifier == nil {
		return
	}
	go h.notifier.Dispatch(plan)
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
