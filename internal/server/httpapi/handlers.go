package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "storage unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listOrders serves the scoped listing to anyone and the full listing to
// admins only.
func (h *handler) listOrders(c *gin.Context) {
	var deviceScope *string
	if raw, ok := c.GetQuery(common.ScopeQueryParam); ok {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			abort(c, http.StatusBadRequest, "scope must not be empty")
			return
		}
		deviceScope = &raw
	} else if err := checkAdmin(callerFrom(c)); err != nil {
		writeError(c, h.log, err)
		return
	}

	orders, err := h.orders.List(c.Request.Context(), deviceScope)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handler) createOrder(c *gin.Context) {
	var order models.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		abort(c, http.StatusBadRequest, "invalid order body: "+err.Error())
		return
	}

	created, err := h.orders.Create(c.Request.Context(), order, callerFrom(c).DeviceID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid status body: "+err.Error())
		return
	}

	updated, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) deleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, log logging.Logger, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrDuplicate):
		code = http.StatusConflict
	case errors.Is(err, common.ErrScopeFilter):
		code = http.StatusNotImplemented
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		if log != nil {
			log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		}
		msg = "internal error"
	}
	c.JSON(code, gin.H{"error": msg})
}
