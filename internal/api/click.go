package api

import (
	"net/http"
	"strconv"
	"time"

	"click-merchant-api/internal/metrics"
	"click-merchant-api/internal/models"
	"click-merchant-api/internal/response"
	"click-merchant-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

// ClickPrepare handles the Click prepare callback. Click expects HTTP 200
// for every outcome; the result is carried by the error field.
func (h *Handler) ClickPrepare(c *gin.Context) {
	start := time.Now()

	var req models.PrepareRequest
	if err := c.ShouldBind(&req); err != nil {
		logging.Errorf("Invalid prepare request: %v", err)
		h.replyPrepare(c, start, models.PrepareResponse{}, response.Wrap(err, response.CodeBadRequest, response.NoteBadRequest))
		return
	}

	resp, err := h.merchant.Prepare(c.Request.Context(), &req)
	h.replyPrepare(c, start, resp, err)
}

// ClickComplete handles the Click complete callback
func (h *Handler) ClickComplete(c *gin.Context) {
	start := time.Now()

	var req models.CompleteRequest
	if err := c.ShouldBind(&req); err != nil {
		logging.Errorf("Invalid complete request: %v", err)
		h.replyComplete(c, start, models.CompleteResponse{}, response.Wrap(err, response.CodeBadRequest, response.NoteBadRequest))
		return
	}

	resp, err := h.merchant.Complete(c.Request.Context(), &req)
	h.replyComplete(c, start, resp, err)
}

func (h *Handler) replyPrepare(c *gin.Context, start time.Time, resp models.PrepareResponse, err error) {
	if err != nil {
		resp = response.PrepareFailure(err)
	}
	observe("prepare", resp.Error, start)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) replyComplete(c *gin.Context, start time.Time, resp models.CompleteResponse, err error) {
	if err != nil {
		resp = response.CompleteFailure(err)
	}
	observe("complete", resp.Error, start)
	c.JSON(http.StatusOK, resp)
}

func observe(action string, code int, start time.Time) {
	metrics.CallbacksTotal.WithLabelValues(action, strconv.Itoa(code)).Inc()
	metrics.CallbackDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
