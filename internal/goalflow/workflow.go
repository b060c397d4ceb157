package goalflow

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/templui/goalcoach/internal/export"
	"github.com/templui/goalcoach/internal/model"
)

// Stage is a state of the per-message workflow.
type Stage string

const (
	StageAnalyzing      Stage = "analyzing"
	StageNeedsInfo      Stage = "needs_info"
	StageReadyToCreate  Stage = "ready_to_create"
	StageCreated        Stage = "created"
	StageCreationFailed Stage = "creation_failed"
	StageExported       Stage = "exported"
	StageNotExported    Stage = "not_exported"
	StageDone           Stage = "done"
)

const (
	MaxMessageLength = 4000

	creationThreshold  = 0.6
	suggestedQuestions = 2

	textNeedMoreInfo  = "I need a bit more information before we can create your goal profile."
	textCreationError = "I encountered an issue creating your goal profile. Let's try again with more specific details about what you want to achieve."
	textReadyDownload = " Your goal profile is ready for download!"

	stepAnswerQuestions = "Answer the questions above"
	stepMoreDetails     = "Provide more details about your goal"
	stepMoreSpecific    = "Provide more specific details about your goal"
	stepDownload        = "Download your goal profile"
)

type Preferences struct {
	DefaultExportFormat export.Format `json:"defaultExportFormat"`
	AutoGenerate        bool          `json:"autoGenerate"`
	IncludeTemplates    bool          `json:"includeTemplates"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		DefaultExportFormat: export.FormatMarkdown,
		AutoGenerate:        true,
		IncludeTemplates:    true,
	}
}

// TemplateSource suggests goal templates for a goal type.
type TemplateSource interface {
	Suggest(goalType model.GoalType) []*model.GoalTemplate
}

type Input struct {
	Message  string
	ThreadID string
	UserID   string
	// History holds earlier user turns of the thread, oldest first.
	History     []string
	Preferences Preferences
	UserContext *model.UserContext
}

func (in Input) validate() error {
	switch {
	case strings.TrimSpace(in.Message) == "":
		return ErrEmptyMessage
	case utf8.RuneCountInString(in.Message) > MaxMessageLength:
		return ErrMessageTooLong
	case in.ThreadID == "":
		return ErrMissingThreadID
	case in.UserID == "":
		return ErrMissingUserID
	}
	return nil
}

// Response is the bundle handed back to the caller once the workflow is done.
type Response struct {
	Text               string                `json:"text"`
	Goal               *model.Goal           `json:"goalProfile,omitempty"`
	Creation           *CreationResult       `json:"creation,omitempty"`
	Export             *export.Result        `json:"export,omitempty"`
	NextSteps          []string              `json:"nextSteps"`
	SuggestedQuestions []string              `json:"suggestedQuestions,omitempty"`
	Confidence         float64               `json:"confidence"`
	NeedsMoreInfo      bool                  `json:"needsMoreInfo"`
	Insights           []string              `json:"insights"`
	Templates          []*model.GoalTemplate `json:"templates,omitempty"`
	Extraction         ExtractionResult      `json:"extraction"`
	// Trail lists the states visited, ending with StageDone.
	Trail []Stage `json:"trail"`
}

// Outcome is the last state before StageDone.
func (r *Response) Outcome() Stage {
	if len(r.Trail) < 2 {
		return StageAnalyzing
	}
	return r.Trail[len(r.Trail)-2]
}

// Exported reports whether an export document is attached.
func (r *Response) Exported() bool {
	return r.Export != nil
}

// Stage results. Each stage consumes the result of the one before it.
type (
	analysis struct {
		extraction ExtractionResult
	}
	clarification struct {
		analysis  analysis
		questions Questions
	}
	creation struct {
		analysis analysis
		result   *CreationResult
	}
	delivery struct {
		creation creation
		result   *export.Result
	}
)

type Workflow struct {
	now       func() time.Time
	templates TemplateSource
	exportOpt export.Options
	creator   func(CreationRequest, time.Time) (*CreationResult, error)
	exporter  func([]*model.Goal, export.Format, export.Options) (*export.Result, error)
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func WithTemplates(src TemplateSource) Option {
	return func(w *Workflow) { w.templates = src }
}

// WithExportOptions sets the base options for auto-generated exports.
func WithExportOptions(opts export.Options) Option {
	return func(w *Workflow) { w.exportOpt = opts }
}

func New(opts ...Option) *Workflow {
	w := &Workflow{
		now:       time.Now,
		exportOpt: export.DefaultOptions(),
		creator:   CreateGoal,
		exporter:  export.Export,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run takes one user message through the workflow. Errors are returned only
// for invalid input or a cancelled context; creation and export failures are
// reported in the response.
func (w *Workflow) Run(ctx context.Context, in Input) (*Response, error) {
	err := in.validate()
	if err != nil {
		return nil, err
	}
	if in.Preferences.DefaultExportFormat == "" {
		in.Preferences.DefaultExportFormat = export.FormatMarkdown
	}

	trail := []Stage{StageAnalyzing}
	a := w.analyze(in)

	if a.extraction.NeedsMoreInfo || a.extraction.Confidence <= creationThreshold {
		trail = append(trail, StageNeedsInfo, StageDone)
		return w.needsInfo(in, w.clarify(in, a), trail), nil
	}

	err = ctx.Err()
	if err != nil {
		return nil, err
	}

	trail = append(trail, StageReadyToCreate)
	c, err := w.create(in, a)
	if err != nil {
		slog.Warn("goal creation failed", "error", err, "thread_id", in.ThreadID, "user_id", in.UserID)
		trail = append(trail, StageCreationFailed, StageDone)
		return w.creationFailed(in, w.clarify(in, a), trail), nil
	}
	trail = append(trail, StageCreated)

	var d *delivery
	if in.Preferences.AutoGenerate {
		d, err = w.export(in, c)
		if err != nil {
			slog.Warn("goal export failed", "error", err, "format", in.Preferences.DefaultExportFormat, "user_id", in.UserID)
		}
	}
	if d != nil {
		trail = append(trail, StageExported)
	} else {
		trail = append(trail, StageNotExported)
	}
	trail = append(trail, StageDone)

	return w.created(in, c, d, trail), nil
}

func (w *Workflow) analyze(in Input) analysis {
	return analysis{extraction: Extract(in.Message, in.History)}
}

func (w *Workflow) clarify(in Input, a analysis) clarification {
	return clarification{analysis: a, questions: GenerateQuestions(in.Message, a.extraction)}
}

func (w *Workflow) create(in Input, a analysis) (creation, error) {
	now := w.now()
	req := BuildCreationRequest(a.extraction, in.Message, now)
	req.UserID = in.UserID

	result, err := w.creator(req, now)
	if err != nil {
		return creation{}, err
	}
	return creation{analysis: a, result: result}, nil
}

func (w *Workflow) export(in Input, c creation) (*delivery, error) {
	opts := w.exportOpt
	opts.ExportDate = w.now()
	if in.UserContext != nil {
		opts.UserContext = in.UserContext
	}

	result, err := w.exporter([]*model.Goal{c.result.Goal}, in.Preferences.DefaultExportFormat, opts)
	if err != nil {
		return nil, err
	}
	return &delivery{creation: c, result: result}, nil
}

func (w *Workflow) needsInfo(in Input, c clarification, trail []Stage) *Response {
	resp := w.base(in, c.analysis, trail)
	resp.Text = c.questions.Reply
	resp.NeedsMoreInfo = true
	resp.SuggestedQuestions = c.questions.Top(suggestedQuestions)
	resp.NextSteps = []string{stepAnswerQuestions, stepMoreDetails}
	if len(c.questions.Questions) == 0 {
		resp.Text = textNeedMoreInfo
	}
	return resp
}

func (w *Workflow) creationFailed(in Input, c clarification, trail []Stage) *Response {
	resp := w.base(in, c.analysis, trail)
	resp.Text = textCreationError
	resp.NeedsMoreInfo = true
	resp.SuggestedQuestions = c.questions.Top(suggestedQuestions)
	resp.NextSteps = []string{stepMoreSpecific}
	return resp
}

func (w *Workflow) created(in Input, c creation, d *delivery, trail []Stage) *Response {
	resp := w.base(in, c.analysis, trail)
	resp.Goal = c.result.Goal
	resp.Creation = c.result
	resp.Text = createdText(c)
	resp.NextSteps = append([]string(nil), c.result.NextSteps...)

	if d != nil {
		resp.Export = d.result
		resp.Text += textReadyDownload
		resp.NextSteps = append([]string{stepDownload}, resp.NextSteps...)
	}
	return resp
}

func (w *Workflow) base(in Input, a analysis, trail []Stage) *Response {
	resp := &Response{
		Confidence: a.extraction.Confidence,
		Extraction: a.extraction,
		Insights:   insights(a.extraction),
		Trail:      trail,
	}
	if in.Preferences.IncludeTemplates && w.templates != nil && a.extraction.Attributes.GoalType != "" {
		resp.Templates = w.templates.Suggest(a.extraction.Attributes.GoalType)
	}
	return resp
}

func createdText(c creation) string {
	goal := c.result.Goal
	attrs := c.analysis.extraction.Attributes

	goalType := string(attrs.GoalType)
	if goalType == "" {
		goalType = string(model.GoalTypePersonal)
	}

	var over string
	if goal.EndDate != nil && attrs.Timeframe != "" {
		over = " over the next " + attrs.Timeframe.Noun()
	}

	return fmt.Sprintf("Perfect! I've created a goal profile for you. Your %s goal \"%s\" is structured and ready to guide your journey%s. You can review it, make adjustments, and download it when you're ready!",
		goalType, goal.Title, over)
}

func insights(e ExtractionResult) []string {
	goalType := string(e.Attributes.GoalType)
	if goalType == "" {
		goalType = "general"
	}
	return []string{
		fmt.Sprintf("Your goal appears to be %s focused", goalType),
		fmt.Sprintf("Confidence level: %d%%", int(math.Round(e.Confidence*100))),
	}
}
