package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/pdfinsight/internal/conversation"
	"github.com/liliang-cn/pdfinsight/internal/domain"
	"github.com/liliang-cn/pdfinsight/internal/metrics"
	"github.com/liliang-cn/pdfinsight/internal/session"
)

// Transport is the remote service as seen by a controller
type Transport interface {
	SubmitDocument(ctx context.Context, r io.Reader, filename string) (*domain.UploadAck, error)
	SubmitQuestion(ctx context.Context, question string) (*domain.QueryResponse, error)
}

// ChatService creates controllers that share one transport
type ChatService struct {
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

// NewChatService creates a new chat service
func NewChatService(transport Transport, logger *zap.Logger, recorder *metrics.Recorder) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		transport: transport,
		logger:    logger,
		metrics:   recorder,
	}
}

// NewController starts a fresh session with no document and an empty conversation
func (s *ChatService) NewController() *Controller {
	id := uuid.New().String()
	return &Controller{
		id:        id,
		transport: s.transport,
		logger:    s.logger.With(zap.String("session_id", id)),
		metrics:   s.metrics,
		log:       conversation.NewLog(),
	}
}

// Controller owns one document session and its conversation.
// Every mutation of either goes through its methods.
type Controller struct {
	id        string
	transport Transport
	logger    *zap.Logger
	metrics   *metrics.Recorder

	doc session.Document
	log *conversation.Log

	// mu serializes state transitions and keeps View consistent; it is never
	// held across a remote call
	mu    sync.Mutex
	draft string
}

// ID returns the controller's session id
func (c *Controller) ID() string {
	return c.id
}

// SetDraft replaces the input buffer
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the input buffer
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// StartQuestion submits the input buffer. The user turn and its pending answer
// are appended and the buffer cleared before the remote call begins.
//
// Rejections (ErrEmptyQuestion, ErrNoDocument, ErrQuestionInFlight) leave every
// piece of state untouched.
func (c *Controller) StartQuestion(ctx context.Context) (*RoundTrip, error) {
	c.mu.Lock()

	question := strings.TrimSpace(c.draft)
	if question == "" {
		c.mu.Unlock()
		return nil, domain.ErrEmptyQuestion
	}
	if _, ok := c.doc.Name(); !ok {
		c.mu.Unlock()
		return nil, domain.ErrNoDocument
	}

	turnID, err := c.log.AppendExchange(question)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.draft = ""
	c.mu.Unlock()

	rt := newRoundTrip(metrics.KindQuery, turnID)
	go c.runQuestion(ctx, rt, question)
	return rt, nil
}

// Ask sets the input buffer to question and waits for its round-trip to settle
func (c *Controller) Ask(ctx context.Context, question string) (Outcome, error) {
	c.SetDraft(question)
	rt, err := c.StartQuestion(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return rt.Wait(ctx)
}

func (c *Controller) runQuestion(ctx context.Context, rt *RoundTrip, question string) {
	resp, err := c.submitQuestion(ctx, question)
	if err == nil && resp == nil {
		err = domain.NewTransportFailure(0, errors.New("empty response"))
	}

	c.mu.Lock()
	outcome := c.settleQuestion(rt.TurnID(), resp, err)
	c.mu.Unlock()

	c.metrics.ObserveSettled(metrics.KindQuery, metricOutcome(outcome.Phase))
	rt.settle(outcome)
}

func (c *Controller) settleQuestion(turnID string, resp *domain.QueryResponse, callErr error) Outcome {
	if callErr != nil {
		failure := domain.AsFailure(callErr)
		if err := c.log.Fail(turnID, failure.Message); err != nil {
			c.logger.Warn("question failure discarded", zap.String("turn_id", turnID), zap.Error(err))
			return Outcome{Phase: PhaseDiscarded, Err: err}
		}
		c.logger.Info("question failed", zap.String("turn_id", turnID), zap.String("message", failure.Message))
		return Outcome{Phase: PhaseFailed, Err: failure}
	}

	err := c.log.Resolve(turnID, resp.Answer, resp.Sources)
	switch {
	case err == nil:
		c.logger.Debug("question resolved", zap.String("turn_id", turnID), zap.Int("sources", len(resp.Sources)))
		return Outcome{Phase: PhaseResolved}
	case errors.Is(err, domain.ErrTurnNotFound):
		c.logger.Warn("answer discarded", zap.String("turn_id", turnID), zap.Error(err))
		return Outcome{Phase: PhaseDiscarded, Err: err}
	default:
		c.logger.Error("answer rejected", zap.String("turn_id", turnID), zap.Error(err))
		return Outcome{Phase: PhaseFailed, Err: err}
	}
}

// StartDocument submits one document. It fails fast with ErrInvalidDocument for
// anything that is not a named PDF and with ErrAlreadyInFlight while another
// submission runs; neither changes any state.
func (c *Controller) StartDocument(ctx context.Context, filename string, data []byte) (*RoundTrip, error) {
	if filename == "" || data == nil {
		return nil, fmt.Errorf("%w: missing file", domain.ErrInvalidDocument)
	}
	if !domain.IsSupported(filename) {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidDocument, domain.DetectFileType(filename))
	}
	if err := c.doc.BeginSubmission(); err != nil {
		return nil, err
	}

	rt := newRoundTrip(metrics.KindUpload, "")
	go c.runDocument(ctx, rt, filename, data)
	return rt, nil
}

// Upload submits one document and waits for the round-trip to settle
func (c *Controller) Upload(ctx context.Context, filename string, data []byte) (Outcome, error) {
	rt, err := c.StartDocument(ctx, filename, data)
	if err != nil {
		return Outcome{}, err
	}
	return rt.Wait(ctx)
}

func (c *Controller) runDocument(ctx context.Context, rt *RoundTrip, filename string, data []byte) {
	_, err := c.submitDocument(ctx, filename, data)

	var outcome Outcome
	c.mu.Lock()
	if err != nil {
		failure := domain.AsFailure(err)
		c.doc.FailSubmission()
		c.log.Reset(domain.TurnError, domain.UploadFailedMessage(failure.Message))
		outcome = Outcome{Phase: PhaseFailed, Err: failure}
	} else {
		c.doc.CompleteSubmission(filename)
		c.log.Reset(domain.TurnComplete, domain.UploadedMessage(filename))
		outcome = Outcome{Phase: PhaseResolved}
	}
	c.mu.Unlock()

	if outcome.Err != nil {
		c.logger.Info("document rejected", zap.String("filename", filename), zap.Error(outcome.Err))
	} else {
		c.logger.Info("document uploaded", zap.String("filename", filename), zap.Int("bytes", len(data)))
	}
	c.metrics.ObserveSettled(metrics.KindUpload, metricOutcome(outcome.Phase))
	rt.settle(outcome)
}

// ToggleExpand shows the sources of turn index, or hides them if already shown
func (c *Controller) ToggleExpand(index int) {
	c.log.ToggleExpand(index)
}

// View returns a consistent snapshot for rendering
func (c *Controller) View() domain.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := c.doc.Snapshot()
	turns, expanded := c.log.Snapshot()

	return domain.View{
		DocumentName: doc.Name,
		HasDocument:  doc.HasDocument,
		Submitting:   doc.Submitting,
		Turns:        turns,
		Expanded:     expanded,
		Draft:        c.draft,
		Awaiting:     len(turns) > 0 && turns[len(turns)-1].Pending(),
	}
}

// submitQuestion and submitDocument turn a transport panic into a failure so
// that no call escapes without settling its round-trip
func (c *Controller) submitQuestion(ctx context.Context, question string) (resp *domain.QueryResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("transport panic", zap.Any("panic", r))
			resp, err = nil, domain.NewTransportFailure(0, fmt.Errorf("internal error: %v", r))
		}
	}()
	return c.transport.SubmitQuestion(ctx, question)
}

func (c *Controller) submitDocument(ctx context.Context, filename string, data []byte) (ack *domain.UploadAck, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("transport panic", zap.Any("panic", r))
			ack, err = nil, domain.NewTransportFailure(0, fmt.Errorf("internal error: %v", r))
		}
	}()
	return c.transport.SubmitDocument(ctx, bytes.NewReader(data), filename)
}

func metricOutcome(p Phase) string {
	switch p {
	case PhaseResolved:
		return metrics.OutcomeSuccess
	case PhaseDiscarded:
		return metrics.OutcomeDiscarded
	default:
		return metrics.OutcomeFailure
	}
}
