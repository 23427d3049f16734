package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/extract"
	"github.com/ashureev/hrdesk/internal/intent"
	"github.com/ashureev/hrdesk/internal/llm"
	"github.com/ashureev/hrdesk/internal/prompt"
	"github.com/ashureev/hrdesk/internal/query"
	"github.com/ashureev/hrdesk/internal/role"
	"github.com/go-playground/validator/v10"
)

const (
	// historyMessages is how many caller-supplied history messages reach the model.
	historyMessages = 6
	// formatRows caps the rows sent to the format call.
	formatRows = 15
)

// Deps are the collaborators shared by every pipeline.
type Deps struct {
	Catalog   *role.Catalog
	Completer llm.Completer
	Extractor extract.Extractor
	Runner    query.Runner
	Policy    PolicyLookup
	Schema    SchemaProvider
	Turns     TurnStore
	Validate  *validator.Validate
	Logger    *slog.Logger
}

// Pipeline answers one chat request for a single caller profile.
// It holds no per-session state: the session context is passed in and the
// updated context is returned.
type Pipeline struct {
	profile role.Profile
	deps    Deps
	logger  *slog.Logger
}

// NewPipeline creates a pipeline for profile.
func NewPipeline(profile role.Profile, deps Deps) *Pipeline {
	if deps.Extractor == nil {
		deps.Extractor = extract.ReplyParser{}
	}
	if deps.Validate == nil {
		deps.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		profile: profile,
		deps:    deps,
		logger:  logger.With("role", profile.Name),
	}
}

// Profile returns the profile this pipeline serves.
func (p *Pipeline) Profile() role.Profile {
	return p.profile
}

// Handle runs one request. Every exit path persists exactly one chat turn,
// except validation failures and a failed generate call.
func (p *Pipeline) Handle(ctx context.Context, sc domain.SessionContext, req Request) (Result, domain.SessionContext) {
	message := strings.TrimSpace(req.Message)
	if msg := p.validateRequest(req, message); msg != "" {
		return p.finish(http.StatusBadRequest, Response{Success: false, Error: msg}, OutcomeInvalid, extract.TierNone), sc
	}

	sc.Role = p.profile.Name
	if req.HRID != "" {
		sc.CallerID = req.HRID
	}
	if req.HREmail != "" {
		sc.CallerEmail = req.HREmail
	}
	logger := p.logger.With("session_id", sc.SessionID)

	if c := intent.Classify(message); c.IsPolicy {
		logger.Info("Policy question detected", "reason", c.Reason)
		if sections := p.deps.Policy.Lookup(ctx, message); len(sections) > 0 {
			return p.answerPolicy(ctx, logger, sc, message, sections), sc
		}
		logger.Info("No relevant policy content found in handbook")
	}

	history := req.History
	if len(history) > historyMessages {
		history = history[len(history)-historyMessages:]
	}
	contextLines := prompt.ContextLines(sc.PreviousQueries)

	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt.EnhanceMessage(message, contextLines)})

	schema, err := p.deps.Schema.Enhanced(ctx)
	if err != nil {
		logger.Error("Schema load failed", "error", err)
		schema = msgSchemaError
	}
	system := prompt.System(schema, p.deps.Catalog, p.profile, callerLabel(sc))

	reply, err := p.complete(ctx, stageGenerate, llm.CompletionRequest{Messages: messages, System: system})
	if err != nil {
		logger.Error("Completion failed", "error", err)
		return p.finish(http.StatusInternalServerError, Response{Success: false, Error: err.Error()}, OutcomeProviderError, extract.TierNone), sc
	}
	reply = strings.TrimSpace(reply)

	ext := p.deps.Extractor.Extract(reply)
	extractionsTotal.WithLabelValues(string(ext.Tier)).Inc()
	if !ext.Found() {
		logger.Info("Direct answer (no query)")
		p.persist(ctx, logger, sc.SessionID, message, reply, nil)
		return p.finish(http.StatusOK, Response{Success: true, Response: reply}, OutcomeDirect, ext.Tier), sc
	}

	stmt := ext.Statement
	logger.Info("Executing statement", "tier", ext.Tier, "sql", truncate(stmt, 150))
	outcome := p.deps.Runner.Execute(ctx, stmt)
	if !outcome.OK {
		errMsg := errorText(outcome.Err)
		logger.Warn("Query failed", "error", errMsg)
		p.persist(ctx, logger, sc.SessionID, message, "Query error: "+errMsg, &stmt)
		return p.finish(http.StatusOK, Response{Success: false, Error: "Database error: " + errMsg, SQL: stmt}, OutcomeQueryError, ext.Tier), sc
	}

	logger.Info("Query executed", "row_count", outcome.RowCount)
	if outcome.RowCount == 0 {
		p.persist(ctx, logger, sc.SessionID, message, msgNoRecords, &stmt)
		zero := 0
		return p.finish(http.StatusOK, Response{Success: true, Response: msgNoRecords, Count: &zero, SQL: stmt}, OutcomeEmpty, ext.Tier), sc
	}

	sc = sc.RecordQuery(domain.QueryRecord{
		Question:  message,
		Statement: stmt,
		RowCount:  outcome.RowCount,
		Timestamp: time.Now(),
	})

	answer := p.formatRows(ctx, logger, message, stmt, outcome, contextLines)

	sc = sc.RecordResult(domain.ResultRecord{
		Question: message,
		Answer:   answer,
		RowCount: outcome.RowCount,
	})
	p.persist(ctx, logger, sc.SessionID, message, answer, &stmt)

	count := outcome.RowCount
	return p.finish(http.StatusOK, Response{
		Success:  true,
		Response: answer,
		Count:    &count,
		SQL:      stmt,
		Context: &ContextSummary{
			HasHistory:      len(history) > 0,
			PreviousQueries: len(sc.PreviousQueries),
		},
	}, OutcomeAnswered, ext.Tier), sc
}

func (p *Pipeline) validateRequest(req Request, message string) string {
	if message == "" {
		return msgMessageRequired
	}
	if err := p.deps.Validate.Struct(req); err != nil {
		return validationMessage(err)
	}
	if !p.profile.RequireIdentity {
		return ""
	}
	if err := p.deps.Validate.Struct(callerIdentity{ID: req.HRID, Email: req.HREmail}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "email" {
			return msgInvalidEmail
		}
		return msgIdentityRequired
	}
	return ""
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return "Field " + fe.Field() + " is too long"
	case "oneof":
		return "History role must be user or assistant"
	case "required":
		return "Field " + fe.Field() + " is required"
	default:
		return "Field " + fe.Field() + " is invalid"
	}
}

func (p *Pipeline) answerPolicy(ctx context.Context, logger *slog.Logger, sc domain.SessionContext, message string, sections []domain.PolicySection) Result {
	logger.Info("Answering from HR handbook", "sections", len(sections))

	handbook := p.deps.Catalog.Handbook
	answer, err := p.complete(ctx, stagePolicy, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt.Policy(message, sections, handbook)}},
		System:   handbook.System,
	})
	if err != nil {
		logger.Error("Policy completion failed", "error", err)
		answer = msgPolicyError
	}

	p.persist(ctx, logger, sc.SessionID, message, answer, nil)

	var pages []int
	for _, sec := range sections {
		if sec.PageNumber > 0 {
			pages = append(pages, sec.PageNumber)
		}
	}
	return p.finish(http.StatusOK, Response{
		Success:        true,
		Response:       answer,
		IsPolicyAnswer: true,
		Source:         handbook.Source,
		PolicyPages:    pages,
	}, OutcomePolicy, extract.TierNone)
}

// formatRows asks the model to phrase the rows and falls back to the
// deterministic formatter when that call fails.
func (p *Pipeline) formatRows(ctx context.Context, logger *slog.Logger, message, stmt string, outcome query.Outcome, contextLines string) string {
	rows := outcome.Rows
	if len(rows) > formatRows {
		rows = rows[:formatRows]
	}

	text, err := prompt.Format(message, stmt, rows, outcome.RowCount, contextLines, p.deps.Catalog.Format)
	if err == nil {
		var reply string
		reply, err = p.complete(ctx, stageFormat, llm.CompletionRequest{
			Messages: []llm.Message{{Role: llm.RoleUser, Content: text}},
		})
		if err == nil {
			return strings.TrimSpace(reply)
		}
	}

	logger.Warn("Formatting failed, using fallback", "error", err)
	fallbackFormatsTotal.Inc()
	return FormatFallback(outcome.Rows, outcome.RowCount, message)
}

func (p *Pipeline) complete(ctx context.Context, stage string, req llm.CompletionRequest) (string, error) {
	start := time.Now()
	reply, err := p.deps.Completer.Complete(ctx, req)
	observeCompletion(stage, start, err)
	return reply, err
}

// persist never fails the request; a lost log row is only reported.
func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, sessionID, message, response string, stmt *string) {
	turn := &domain.ChatTurn{
		SessionID: sessionID,
		Message:   message,
		Response:  response,
		Statement: stmt,
		CreatedAt: time.Now(),
	}
	if err := p.deps.Turns.SaveTurn(context.WithoutCancel(ctx), turn); err != nil {
		logger.Error("Failed to save chat turn", "error", err)
	}
}

func (p *Pipeline) finish(status int, body Response, outcome Outcome, tier extract.Tier) Result {
	body.AccessLevel = p.profile.AccessLevel
	requestsTotal.WithLabelValues(p.profile.Name, string(outcome)).Inc()
	return Result{Status: status, Body: body, Outcome: outcome, Tier: tier}
}

func callerLabel(sc domain.SessionContext) string {
	if sc.CallerID != "" {
		return sc.CallerID
	}
	return sc.CallerEmail
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
