package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
)

// Handler wires the HTTP transport to the mood pipeline.
type Handler struct {
	moodSvc mood.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(moodSvc mood.Service, logger *slog.Logger) *Handler {
	return &Handler{
		moodSvc: moodSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

// legacyRequest is the body accepted by POST /recommend.
type legacyRequest struct {
	TextInput  string `json:"text_input"`
	MoodIntent string `json:"mood_intent"`
}

// SubmitMood runs one query through the pipeline. Upstream failures still
// answer 200 with the sentinel feed.
func (h *Handler) SubmitMood(c *gin.Context) {
	var req mood.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.moodSvc.SubmitMood(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recommend keeps the original backend contract: {text_input, mood_intent}
// in, {detectedEmotion, feed} out.
func (h *Handler) Recommend(c *gin.Context) {
	var req legacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.moodSvc.SubmitMood(c.Request.Context(), mood.Request{Text: req.TextInput, Intent: req.MoodIntent})
	if err != nil {
		abortWithError(c, asHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp.FeedResult)
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.moodSvc.Status())
}

func (h *Handler) Intents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"intents":      h.moodSvc.Intents(),
		"contentTypes": mood.ContentTypes,
	})
}

// Metrics exposes the process-wide feed counters.
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.moodSvc.Counters())
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "MoodMirror backend is running"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
