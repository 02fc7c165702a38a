package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"habboverify/internal/logger"
	"habboverify/internal/realtime"
	"habboverify/internal/services"
)

type OpsHandler struct {
	attempts *services.AttemptRegistry
	repair   *services.RepairService
	events   *realtime.EventHub
}

func NewOpsHandler(attempts *services.AttemptRegistry, repair *services.RepairService, events *realtime.EventHub) *OpsHandler {
	return &OpsHandler{attempts: attempts, repair: repair, events: events}
}

// @Summary  Liveness check
// @Tags     Ops
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /healthz [get]
func (h *OpsHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Running verification attempts
// @Tags         Admin
// @Produce      json
// @Success      200  {array}  services.AttemptInfo
// @Security     BearerAuth
// @Router       /admin/attempts [get]
func (h *OpsHandler) Attempts(c *gin.Context) {
	c.JSON(http.StatusOK, h.attempts.Snapshot())
}

// @Summary      Reconcile roles with records
// @Description  Collapses duplicate verified claims and grants or revokes the verify role to match the records
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  services.RepairReport
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     BearerAuth
// @Router       /admin/repair [post]
func (h *OpsHandler) Repair(c *gin.Context) {
	report, err := h.repair.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrRoleNotConfigured) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Log.Errorf("[admin][repair] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Repair failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Live audit events
// @Description  WebSocket stream of verification, reset and repair events. The token may be passed as access_token.
// @Tags         Admin
// @Success      101
// @Failure      400  {string}  string
// @Failure      403  {string}  string
// @Security     BearerAuth
// @Router       /admin/events [get]
func (h *OpsHandler) Events(c *gin.Context) {
	conn, err := h.events.Upgrade(c.Writer, c.Request)
	if err != nil {
		logger.Log.Warnf("[admin][events] %v", err)
		return
	}
	h.events.Register(conn)
	logger.Log.Infof("[admin][events] stream %s opened, %d open", conn.ID, h.events.Len())

	err = conn.Run()
	h.events.Unregister(conn)
	logger.Log.Infof("[admin][events] stream %s closed: %v", conn.ID, err)
}
