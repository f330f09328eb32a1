package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/shared/apperr"
)

type NotificationsHandler struct {
	Svc *notify.Service
}

func NewNotificationsHandler(svc *notify.Service) *NotificationsHandler {
	return &NotificationsHandler{Svc: svc}
}

// GET /api/notifications
func (h *NotificationsHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	list, err := h.Svc.ListForUser(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// POST /api/notifications/:id/read
func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	if err := h.Svc.MarkRead(c.Request.Context(), u.ID, c.Param("id")); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
