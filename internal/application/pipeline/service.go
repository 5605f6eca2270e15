package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/report"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

// Mode selects the reporting variant of a run.
type Mode string

const (
	// ModeFull tracks the session and ends with a final_result payload.
	ModeFull Mode = "full"
	// ModeDemo skips session tracking and ends with structured_data or final_message.
	ModeDemo Mode = "demo"
)

type (
	Guard interface {
		GuardInput(ctx context.Context, text string) error
	}

	Classifier interface {
		Classify(ctx context.Context, text string) (analysis.RoutingDecision, error)
	}

	Analyzer interface {
		Analyze(ctx context.Context, text string) (analysis.Result, error)
	}

	Renderer interface {
		Render(ctx context.Context, r analysis.Result) string
		Chat(ctx context.Context, text string) (string, error)
	}
)

// Service runs the analysis pipeline for one request at a time per call.
// It is safe for concurrent use; runs share nothing but Sessions and Reports.
type Service struct {
	Guard        Guard
	Classifier   Classifier
	Orchestrator Analyzer
	Renderer     Renderer
	Sessions     session.Store
	Reports      report.Repository // optional
	Clock        application.Clock
	Logger       *zap.Logger
	StepDelay    time.Duration
}

// RunOptions carry per-request settings.
type RunOptions struct {
	Mode        Mode
	DocumentURL string
}

//
// ==== USE CASES ====
//

// Run executes the pipeline and streams its progress to em. The stream always
// ends with exactly one terminal payload followed by the end marker, whatever
// happens in between.
func (s *Service) Run(ctx context.Context, req analysis.Request, opts RunOptions, em *Emitter) {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	r := &run{
		svc:   s,
		req:   req,
		opts:  opts,
		em:    em,
		stage: StageReceived,
		log: s.logger().With(
			zap.String("session_id", req.SessionID.String()),
			zap.String("mode", string(opts.Mode)),
		),
	}

	defer func() {
		if err := em.Done(); err != nil {
			r.log.Debug("end marker not delivered", zap.Error(err))
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			r.fail(ctx, fmt.Errorf("panic: %v", p))
		}
	}()

	if err := r.execute(ctx); err != nil {
		r.fail(ctx, err)
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger.Named("pipeline")
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

// run is the state of one pipeline execution.
type run struct {
	svc      *Service
	req      analysis.Request
	opts     RunOptions
	em       *Emitter
	stage    Stage
	insights analysis.Insights
	log      *zap.Logger
}

func (r *run) full() bool { return r.opts.Mode == ModeFull }

func (r *run) execute(ctx context.Context) error {
	text := r.req.Text
	r.insights = analysis.ComputeInsights(text)
	r.startSession(ctx)
	r.log.Info("pipeline started",
		zap.String("filename", r.req.Filename),
		zap.Int("word_count", r.insights.WordCount),
	)

	r.emit(StepReceived, StatusCompleted, fmt.Sprintf("Successfully processed your document '%s'", r.req.Filename), 10, map[string]any{
		"filename":        r.req.Filename,
		"word_count":      r.insights.WordCount,
		"estimated_pages": r.insights.EstimatedPages,
		"estimated_time":  analysis.EstimateProcessingTime(len(text)),
	})
	if err := r.pause(ctx); err != nil {
		return err
	}

	if err := r.advance(StageExtracted); err != nil {
		return err
	}
	r.emit(StepExtraction, StatusCompleted,
		fmt.Sprintf("Extracted %d words from %d pages", r.insights.WordCount, r.insights.EstimatedPages), 20,
		map[string]any{
			"word_count":          r.insights.WordCount,
			"character_count":     r.insights.CharacterCount,
			"estimated_pages":     r.insights.EstimatedPages,
			"estimated_read_time": r.insights.EstimatedReadTime,
		})
	if err := r.pause(ctx); err != nil {
		return err
	}

	if err := r.advance(StageClassifying); err != nil {
		return err
	}
	r.emit(StepClassification, StatusProcessing, "Analyzing document type and structure...", 30, nil)
	if err := r.svc.Guard.GuardInput(ctx, text); err != nil {
		return err
	}
	decision, err := r.svc.Classifier.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	r.log.Info("routing decided",
		zap.String("route", string(decision.Route)),
		zap.String("reasoning", decision.Reasoning),
	)
	r.emit(StepClassification, StatusCompleted, "Identified as: "+title(string(decision.Route)), 40, map[string]any{
		"decision":      decision.Route,
		"reasoning":     decision.Reasoning,
		"document_type": decision.DocumentType,
	})
	if err := r.pause(ctx); err != nil {
		return err
	}

	switch decision.Route {
	case analysis.RouteAnalyzeDocument:
		return r.analyze(ctx)
	case analysis.RouteCasualChat:
		return r.chat(ctx)
	default:
		return r.undetermined(ctx)
	}
}

func (r *run) analyze(ctx context.Context) error {
	if err := r.advance(StageAnalyzing); err != nil {
		return err
	}
	r.emit(StepAnalysis, StatusProcessing, "Our AI legal experts are analyzing your document...", 50, nil)
	res, err := r.svc.Orchestrator.Analyze(ctx, r.req.Text)
	if err != nil {
		return err
	}
	r.emit(StepAnalysis, StatusCompleted, "Document analysis completed successfully", 80, map[string]any{
		"risks_found":    len(res.Risks),
		"summary_length": len(strings.Fields(res.Summary)),
	})
	if err := r.pause(ctx); err != nil {
		return err
	}

	if err := r.advance(StageReporting); err != nil {
		return err
	}
	r.emit(StepReport, StatusProcessing, "Creating your personalized legal analysis report...", 90, nil)

	if !r.full() {
		if err := r.advance(StageReady); err != nil {
			return err
		}
		r.emit(StepReportReady, StatusCompleted, "Your analysis report is ready!", 100, nil)
		r.terminal(StructuredDataPayload{StructuredData: StructuredData{Result: res, RiskCount: len(res.Risks)}})
		r.finish(ctx, "analyzed", nil)
		return nil
	}

	friendly := r.svc.Renderer.Render(ctx, res)
	final := &analysis.FinalResult{
		Type: analysis.ResultLegalAnalysis,
		DocumentInfo: &analysis.DocumentInfo{
			Filename:          r.req.Filename,
			WordCount:         r.insights.WordCount,
			EstimatedPages:    r.insights.EstimatedPages,
			EstimatedReadTime: r.insights.EstimatedReadTime,
			ProcessedAt:       r.svc.now(),
			DocumentURL:       r.opts.DocumentURL,
		},
		Analysis:        &res,
		FriendlyMessage: friendly,
		SessionID:       r.req.SessionID.String(),
	}
	r.saveReport(ctx, final)

	if err := r.advance(StageReady); err != nil {
		return err
	}
	r.finish(ctx, "analyzed", final)
	r.emit(StepReportReady, StatusCompleted, "Your legal analysis report is ready!", 100, map[string]any{
		"session_id": r.req.SessionID.String(),
	})
	r.terminal(FinalResultPayload{FinalResult: final})
	return nil
}

func (r *run) chat(ctx context.Context) error {
	if err := r.advance(StageResponding); err != nil {
		return err
	}
	r.emit(StepQuery, StatusProcessing, "Understanding your question...", 70, nil)
	msg, err := r.svc.Renderer.Chat(ctx, r.req.Text)
	if err != nil {
		return err
	}
	if err := r.advance(StageReady); err != nil {
		return err
	}

	final := &analysis.FinalResult{
		Type:      analysis.ResultCasualResponse,
		Message:   msg,
		SessionID: r.req.SessionID.String(),
	}
	r.finish(ctx, "chat", final)
	r.emit(StepResponseReady, StatusCompleted, "Generated response to your question", 100, nil)
	if r.full() {
		r.terminal(FinalResultPayload{FinalResult: final})
	} else {
		r.terminal(FinalMessagePayload{FinalMessage: msg})
	}
	return nil
}

func (r *run) undetermined(ctx context.Context) error {
	if err := r.advance(StageUndetermined); err != nil {
		return err
	}
	final := &analysis.FinalResult{
		Type:      analysis.ResultError,
		Message:   MsgUndetermined,
		SessionID: r.req.SessionID.String(),
	}
	r.finish(ctx, "undetermined", final)
	r.emit(StepUnclear, StatusCompleted, "Analysis finished - document type unclear", 100, nil)
	if r.full() {
		r.terminal(FinalResultPayload{FinalResult: final})
	} else {
		r.terminal(FinalMessagePayload{FinalMessage: MsgDemoUnrecognized})
	}
	return nil
}

// fail moves the run to the failed stage and closes the stream with a
// caller-safe message.
func (r *run) fail(ctx context.Context, err error) {
	if r.stage.Terminal() {
		r.log.Error("error after terminal stage", zap.String("stage", string(r.stage)), zap.Error(err))
		return
	}
	r.stage = StageFailed

	step, msg, outcome := StepSystemError, MsgSystemError, "error"
	if !r.full() {
		msg = MsgDemoError
	}
	var tw *analysis.TripwireError
	switch {
	case errors.As(err, &tw) && tw.Kind == analysis.TripwireInput:
		step, msg, outcome = StepSecurity, MsgSensitive, "blocked"
		r.log.Warn("input guardrail tripped",
			zap.String("reasoning", tw.Verdict.Reasoning),
			zap.Strings("flagged", tw.Verdict.FlaggedCategories),
		)
	case errors.As(err, &tw):
		step, msg, outcome = StepValidation, MsgValidation, "invalid"
		r.log.Warn("output guardrail tripped", zap.String("reasoning", tw.Verdict.Reasoning))
	case errors.Is(err, context.Canceled):
		step, msg, outcome = StepCancelled, MsgCancelled, "cancelled"
		r.log.Info("pipeline cancelled", zap.Error(err))
	default:
		r.log.Error("pipeline failed", zap.Error(err))
	}

	final := &analysis.FinalResult{
		Type:      analysis.ResultError,
		Message:   msg,
		SessionID: r.req.SessionID.String(),
	}
	r.updateSession(ctx, func(rec session.Record) session.Record {
		rec.Status = session.StatusFailed
		rec.Message = msg
		rec.Result = final
		return rec
	})
	metrics.PipelineRuns.WithLabelValues(string(r.opts.Mode), outcome).Inc()

	r.emit(step, StatusFailed, msg, 0, nil)
	if r.full() {
		r.terminal(FinalResultPayload{FinalResult: final})
	} else {
		r.terminal(FinalMessagePayload{FinalMessage: msg})
	}
}

// finish records a successful terminal state.
func (r *run) finish(ctx context.Context, outcome string, final *analysis.FinalResult) {
	r.updateSession(ctx, func(rec session.Record) session.Record {
		rec.Status = session.StatusCompleted
		rec.Result = final
		if final != nil {
			rec.Message = final.Message
		}
		return rec
	})
	metrics.PipelineRuns.WithLabelValues(string(r.opts.Mode), outcome).Inc()
	r.log.Info("pipeline finished", zap.String("outcome", outcome))
}

func (r *run) advance(to Stage) error {
	next, err := r.stage.Next(to)
	if err != nil {
		return err
	}
	r.stage = next
	return nil
}

func (r *run) emit(step string, status Status, msg string, progress int, details map[string]any) {
	if !r.full() {
		details = nil
	}
	if err := r.em.Emit(Event{Step: step, Status: status, Message: msg, Progress: progress, Details: details}); err != nil {
		r.log.Debug("progress event dropped", zap.String("step", step), zap.Error(err))
	}
}

func (r *run) terminal(payload any) {
	if err := r.em.Terminal(payload); err != nil {
		r.log.Debug("terminal payload dropped", zap.Error(err))
	}
}

// pause paces the stream between stages.
func (r *run) pause(ctx context.Context) error {
	if r.svc.StepDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.svc.StepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ==== session & report bookkeeping (full mode only) ====

func (r *run) startSession(ctx context.Context) {
	if !r.full() || r.svc.Sessions == nil {
		return
	}
	now := r.svc.now()
	err := r.svc.Sessions.Create(ctx, r.req.SessionID.String(), session.Record{
		Status:    session.StatusProcessing,
		Filename:  r.req.Filename,
		StartedAt: now,
		UpdatedAt: now,
		Insights:  r.insights,
	})
	if err != nil {
		r.log.Warn("session not created", zap.Error(err))
	}
}

func (r *run) updateSession(ctx context.Context, patch session.Patch) {
	if !r.full() || r.svc.Sessions == nil {
		return
	}
	now := r.svc.now()
	// a cancelled request still needs its terminal state recorded
	ctx = context.WithoutCancel(ctx)
	_, err := r.svc.Sessions.Update(ctx, r.req.SessionID.String(), func(rec session.Record) session.Record {
		rec = patch(rec)
		rec.UpdatedAt = now
		return rec
	})
	if err != nil {
		r.log.Warn("session not updated", zap.Error(err))
	}
}

func (r *run) saveReport(ctx context.Context, final *analysis.FinalResult) {
	if r.svc.Reports == nil {
		return
	}
	body, err := json.Marshal(final)
	if err != nil {
		r.log.Warn("report not encoded", zap.Error(err))
		return
	}
	rep := &report.Report{
		ID:        report.ReportID(uuid.NewString()),
		SessionID: final.SessionID,
		Filename:  r.req.Filename,
		RiskCount: len(final.Analysis.Risks),
		Result:    string(body),
		CreatedAt: r.svc.now(),
	}
	if err := r.svc.Reports.Save(ctx, rep); err != nil {
		r.log.Warn("report not archived", zap.Error(err))
	}
}

// title turns "analyze_document" into "Analyze Document".
func title(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
