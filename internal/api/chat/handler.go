package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/api/middleware"
	"github.com/liliang-cn/pdfinsight/internal/domain"
	"github.com/liliang-cn/pdfinsight/internal/service"
)

// Config holds handler settings
type Config struct {
	// MaxUploadBytes caps the size of a submitted document
	MaxUploadBytes int64
	// RefreshInterval is how often the page reloads while something is pending
	RefreshInterval time.Duration
}

// Handler serves the conversation page and its JSON twin
type Handler struct {
	cfg    Config
	logger *zap.Logger
}

// NewHandler creates a new chat handler
func NewHandler(cfg Config, logger *zap.Logger) *Handler {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 2 * time.Second
	}
	return &Handler{cfg: cfg, logger: logger}
}

// RegisterRoutes registers the page routes
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.POST("/upload", h.Upload)
	r.POST("/ask", h.Ask)
	r.POST("/sources/:index/toggle", h.Toggle)
}

// RegisterAPIRoutes registers the JSON routes
func (h *Handler) RegisterAPIRoutes(r gin.IRoutes) {
	r.GET("/state", h.State)
	r.POST("/upload", h.UploadJSON)
	r.POST("/ask", h.AskJSON)
	r.POST("/sources/:index/toggle", h.ToggleJSON)
}

type page struct {
	View           domain.View
	RefreshSeconds int
}

// Index renders the conversation
func (h *Handler) Index(c *gin.Context) {
	ctrl := middleware.Controller(c)
	c.HTML(http.StatusOK, "index.html", page{
		View:           ctrl.View(),
		RefreshSeconds: int(h.cfg.RefreshInterval.Seconds()),
	})
}

// Upload starts a document round-trip and returns to the page
func (h *Handler) Upload(c *gin.Context) {
	if _, _, err := h.startUpload(c); err != nil {
		h.logger.Debug("upload ignored", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Ask starts a question round-trip and returns to the page
func (h *Handler) Ask(c *gin.Context) {
	ctrl := middleware.Controller(c)
	ctrl.SetDraft(c.PostForm("question"))
	if _, err := ctrl.StartQuestion(detach(c)); err != nil {
		h.logger.Debug("question ignored", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Toggle shows or hides the sources of one turn
func (h *Handler) Toggle(c *gin.Context) {
	if index, err := strconv.Atoi(c.Param("index")); err == nil {
		middleware.Controller(c).ToggleExpand(index)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// State returns the conversation as JSON
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Controller(c).View())
}

// AskRequest is the JSON body of a question
type AskRequest struct {
	Question string `json:"question"`
}

// RoundTripResponse reports a started or settled round-trip
type RoundTripResponse struct {
	TurnID string        `json:"turn_id,omitempty"`
	Phase  service.Phase `json:"phase"`
	Error  string        `json:"error,omitempty"`
	View   domain.View   `json:"view"`
}

// UploadJSON starts a document round-trip; ?wait=true blocks until it settles
func (h *Handler) UploadJSON(c *gin.Context) {
	ctrl, rt, err := h.startUpload(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.respond(c, ctrl, rt)
}

// AskJSON starts a question round-trip; ?wait=true blocks until it settles
func (h *Handler) AskJSON(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctrl := middleware.Controller(c)
	ctrl.SetDraft(req.Question)
	rt, err := ctrl.StartQuestion(detach(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.respond(c, ctrl, rt)
}

// ToggleJSON toggles source expansion and returns the new state
func (h *Handler) ToggleJSON(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	ctrl := middleware.Controller(c)
	ctrl.ToggleExpand(index)
	c.JSON(http.StatusOK, ctrl.View())
}

func (h *Handler) startUpload(c *gin.Context) (*service.Controller, *service.RoundTrip, error) {
	ctrl := middleware.Controller(c)

	file, err := c.FormFile(domain.UploadFieldName)
	if err != nil {
		return ctrl, nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if h.cfg.MaxUploadBytes > 0 && file.Size > h.cfg.MaxUploadBytes {
		return ctrl, nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidDocument, h.cfg.MaxUploadBytes)
	}

	src, err := file.Open()
	if err != nil {
		return ctrl, nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return ctrl, nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	rt, err := ctrl.StartDocument(detach(c), file.Filename, data)
	return ctrl, rt, err
}

func (h *Handler) respond(c *gin.Context, ctrl *service.Controller, rt *service.RoundTrip) {
	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, RoundTripResponse{
			TurnID: rt.TurnID(),
			Phase:  service.PhasePending,
			View:   ctrl.View(),
		})
		return
	}

	out, err := rt.Wait(c.Request.Context())
	if err != nil {
		// client went away; the round-trip carries on
		c.Status(http.StatusRequestTimeout)
		return
	}

	resp := RoundTripResponse{TurnID: out.TurnID, Phase: out.Phase, View: ctrl.View()}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// detach keeps request values but outlives the request, so round-trips
// started from a redirecting form post are not cancelled
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion), errors.Is(err, domain.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoDocument),
		errors.Is(err, domain.ErrQuestionInFlight),
		errors.Is(err, domain.ErrAlreadyInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
