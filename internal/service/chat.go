package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/templui/goalcoach/internal/goalflow"
	"github.com/templui/goalcoach/internal/llm"
	"github.com/templui/goalcoach/internal/markdown"
	"github.com/templui/goalcoach/internal/model"
	"github.com/templui/goalcoach/internal/repository"
	"github.com/templui/goalcoach/internal/telemetry"
	"github.com/templui/goalcoach/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultThreadID = "goalcoach-thread"
	DefaultUserID   = "goalcoach-user"

	// OutcomeFallback marks replies written by the language model after the
	// workflow failed.
	OutcomeFallback goalflow.Stage = "llm_fallback"

	fallbackConfidence = 0.5
)

var ErrInvalidUserContext = errors.New("invalid user context")

// Workflow runs one chat message through goal extraction, creation and export.
type Workflow interface {
	Run(ctx context.Context, in goalflow.Input) (*goalflow.Response, error)
}

type ChatRequest struct {
	Message     string             `json:"message"`
	ThreadID    string             `json:"threadId,omitempty"`
	UserID      string             `json:"userId,omitempty"`
	Attachments []Attachment       `json:"attachments,omitempty"`
	UserContext *model.UserContext `json:"userContext,omitempty"`
}

type ChatResponse struct {
	Reply              string                `json:"reply"`
	ReplyHTML          string                `json:"replyHtml,omitempty"`
	GoalProfile        *model.Goal           `json:"goalProfile,omitempty"`
	ExportContent      string                `json:"exportContent,omitempty"`
	ExportFilename     string                `json:"exportFilename,omitempty"`
	ExportMimeType     string                `json:"exportMimeType,omitempty"`
	NextSteps          []string              `json:"nextSteps"`
	SuggestedQuestions []string              `json:"suggestedQuestions,omitempty"`
	Confidence         float64               `json:"confidence"`
	NeedsMoreInfo      bool                  `json:"needsMoreInfo"`
	Insights           []string              `json:"insights,omitempty"`
	Templates          []*model.GoalTemplate `json:"templates,omitempty"`
	Attachments        []*model.File         `json:"attachments,omitempty"`
	Outcome            goalflow.Stage        `json:"outcome"`
}

type ChatService struct {
	workflow     Workflow
	messages     repository.MessageRepository
	goals        *GoalService
	files        *FileService
	completer    llm.Completer
	parser       *markdown.Parser
	prefs        goalflow.Preferences
	historyLimit int

	tracer   trace.Tracer
	outcomes metric.Int64Counter
	duration metric.Float64Histogram
}

// NewChatService wires the chat pipeline. files and completer may be nil when
// attachment storage or the language model are not configured.
func NewChatService(
	workflow Workflow,
	messages repository.MessageRepository,
	goals *GoalService,
	files *FileService,
	completer llm.Completer,
	parser *markdown.Parser,
	prefs goalflow.Preferences,
	historyLimit int,
) *ChatService {
	meter := telemetry.Meter("goalcoach/chat")
	outcomes, _ := meter.Int64Counter("goalcoach.chat.messages",
		metric.WithDescription("Chat messages processed, by workflow outcome"),
	)
	duration, _ := meter.Float64Histogram("goalcoach.chat.duration",
		metric.WithDescription("Time to process a chat message (ms)"),
		metric.WithUnit("ms"),
	)

	return &ChatService{
		workflow:     workflow,
		messages:     messages,
		goals:        goals,
		files:        files,
		completer:    completer,
		parser:       parser,
		prefs:        prefs,
		historyLimit: historyLimit,
		tracer:       telemetry.Tracer("goalcoach/chat"),
		outcomes:     outcomes,
		duration:     duration,
	}
}

// ProcessMessage answers one user message. The reply is always set on
// success; goal profile and export are present only when a goal was created.
// Validation errors and CollaboratorError are the only failures.
func (s *ChatService) ProcessMessage(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "chat.process_message")
	defer span.End()

	if req.ThreadID == "" {
		req.ThreadID = DefaultThreadID
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}
	span.SetAttributes(
		attribute.String("goalcoach.thread_id", req.ThreadID),
		attribute.String("goalcoach.user_id", req.UserID),
		attribute.Int("goalcoach.attachments", len(req.Attachments)),
	)

	if strings.TrimSpace(req.Message) == "" {
		return nil, goalflow.ErrEmptyMessage
	}
	prompt := req.Message + attachmentNote(req.Attachments)
	if utf8.RuneCountInString(prompt) > goalflow.MaxMessageLength {
		return nil, goalflow.ErrMessageTooLong
	}
	err := validateUserContext(req.UserContext)
	if err != nil {
		return nil, err
	}

	history := s.history(req.ThreadID, req.UserID)

	_, err = s.messages.Append(req.ThreadID, req.UserID, model.RoleUser, prompt)
	if err != nil {
		slog.Error("failed to store user message", "error", err, "thread_id", req.ThreadID, "user_id", req.UserID)
	}

	files := s.storeAttachments(ctx, req)

	result, err := s.workflow.Run(ctx, goalflow.Input{
		Message:     prompt,
		ThreadID:    req.ThreadID,
		UserID:      req.UserID,
		History:     userTurns(history),
		Preferences: s.prefs,
		UserContext: req.UserContext,
	})

	var resp *ChatResponse
	switch {
	case err == nil:
		resp, err = s.fromWorkflow(ctx, req, prompt, history, result)
	case goalflow.IsValidationError(err) || ctx.Err() != nil:
		return nil, err
	default:
		slog.Warn("goal workflow failed, falling back to language model", "error", err, "thread_id", req.ThreadID)
		resp, err = s.fallback(ctx, req, prompt, history, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.record(ctx, start, "failed")
		return nil, err
	}

	resp.Attachments = files

	_, err = s.messages.Append(req.ThreadID, req.UserID, model.RoleAssistant, resp.Reply)
	if err != nil {
		slog.Error("failed to store assistant message", "error", err, "thread_id", req.ThreadID, "user_id", req.UserID)
	}

	resp.ReplyHTML, err = s.parser.Render(resp.Reply)
	if err != nil {
		slog.Warn("failed to render reply", "error", err)
	}

	span.SetAttributes(attribute.String("goalcoach.outcome", string(resp.Outcome)))
	s.record(ctx, start, string(resp.Outcome))
	return resp, nil
}

// History returns a thread's most recent messages, oldest first.
func (s *ChatService) History(threadID, userID string, limit int) ([]*model.Message, error) {
	return s.messages.History(threadID, userID, limit)
}

func (s *ChatService) fromWorkflow(ctx context.Context, req ChatRequest, prompt string, history []*model.Message, result *goalflow.Response) (*ChatResponse, error) {
	resp := &ChatResponse{
		Reply:              result.Text,
		GoalProfile:        result.Goal,
		NextSteps:          result.NextSteps,
		SuggestedQuestions: result.SuggestedQuestions,
		Confidence:         result.Confidence,
		NeedsMoreInfo:      result.NeedsMoreInfo,
		Insights:           result.Insights,
		Templates:          result.Templates,
		Outcome:            result.Outcome(),
	}
	if result.Export != nil {
		resp.ExportContent = result.Export.Content
		resp.ExportFilename = result.Export.Filename
		resp.ExportMimeType = result.Export.MimeType
	}

	if result.Goal != nil {
		err := s.goals.Save(result.Goal)
		switch {
		case errors.Is(err, ErrGoalLimitReached):
			slog.Info("goal not saved, open goal limit reached", "user_id", req.UserID, "limit", s.goals.limit)
			resp.Reply += fmt.Sprintf(" You already have %d open goals, so this one was not saved. Complete or remove a goal to start tracking it.", s.goals.limit)
		case err != nil:
			return nil, &CollaboratorError{Op: "save goal", Err: err}
		}
	}

	// Conversational turns read better from the model; the workflow reply
	// stays when the model is unavailable.
	if result.NeedsMoreInfo && result.Extraction.Intent != goalflow.IntentGoalCreation && s.completer != nil {
		text, err := s.complete(ctx, req, prompt, history)
		if err != nil {
			slog.Warn("language model reply failed, keeping workflow reply", "error", err, "thread_id", req.ThreadID)
		} else {
			resp.Reply = text
		}
	}

	return resp, nil
}

func (s *ChatService) fallback(ctx context.Context, req ChatRequest, prompt string, history []*model.Message, workflowErr error) (*ChatResponse, error) {
	if s.completer == nil {
		return nil, &CollaboratorError{Op: "process goal request", Err: workflowErr}
	}

	text, err := s.complete(ctx, req, prompt, history)
	if err != nil {
		return nil, &CollaboratorError{Op: "process goal request", Err: errors.Join(workflowErr, err)}
	}

	return &ChatResponse{
		Reply:         text,
		NextSteps:     []string{},
		Confidence:    fallbackConfidence,
		NeedsMoreInfo: true,
		Outcome:       OutcomeFallback,
	}, nil
}

func (s *ChatService) complete(ctx context.Context, req ChatRequest, prompt string, history []*model.Message) (string, error) {
	resp, err := s.completer.Complete(ctx, llm.Request{
		Prompt:   conversationPrompt(history, prompt),
		ThreadID: req.ThreadID,
		UserID:   req.UserID,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// history degrades to an empty context when the store is unavailable.
func (s *ChatService) history(threadID, userID string) []*model.Message {
	if s.historyLimit <= 0 {
		return nil
	}
	messages, err := s.messages.History(threadID, userID, s.historyLimit)
	if err != nil {
		slog.Warn("failed to load conversation history", "error", err, "thread_id", threadID, "user_id", userID)
		return nil
	}
	return messages
}

func (s *ChatService) storeAttachments(ctx context.Context, req ChatRequest) []*model.File {
	if s.files == nil || len(req.Attachments) == 0 {
		return nil
	}

	var files []*model.File
	for _, a := range req.Attachments {
		f, err := s.files.Upload(ctx, req.UserID, repository.FileOwnerThread, req.ThreadID, a)
		if err != nil {
			slog.Warn("failed to store attachment", "error", err, "name", a.Name, "thread_id", req.ThreadID)
			continue
		}
		files = append(files, f)
	}
	return files
}

func (s *ChatService) record(ctx context.Context, start time.Time, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.outcomes.Add(ctx, 1, attrs)
	s.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
}

// validateUserContext checks the optional profile details used in exports.
func validateUserContext(uc *model.UserContext) error {
	if uc == nil {
		return nil
	}
	if uc.Name != "" {
		err := validation.ValidateName(uc.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUserContext, err)
		}
	}
	if uc.Timezone != "" {
		err := validation.ValidateTimezone(uc.Timezone)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUserContext, err)
		}
	}
	return nil
}

func attachmentNote(attachments []Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	labels := make([]string, len(attachments))
	for i, a := range attachments {
		labels[i] = a.Label()
	}
	return "\n\n[Attached images: " + strings.Join(labels, ", ") + "]"
}

func userTurns(history []*model.Message) []string {
	var turns []string
	for _, m := range history {
		if m.Role == model.RoleUser {
			turns = append(turns, m.Content)
		}
	}
	return turns
}

func conversationPrompt(history []*model.Message, prompt string) string {
	if len(history) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("\nuser: ")
	b.WriteString(prompt)
	return b.String()
}
