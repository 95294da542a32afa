package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/metrics"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
)

type TurnKind string

const (
	TurnNew    TurnKind = "new"
	TurnAppend TurnKind = "append"
	TurnEdit   TurnKind = "edit"
)

type TurnRequest struct {
	ChatID        *uuid.UUID
	BranchID      *uuid.UUID
	IsEdit        bool
	LastMessageID *uuid.UUID
	Model         string
	// Messages is the client's view of the conversation, ending with the
	// user turn being submitted.
	Messages []LLMMessage
}

// PreparedTurn is a turn whose user message (or fork) is already committed.
type PreparedTurn struct {
	Kind          TurnKind
	User          *domain.User
	Chat          *domain.Chat
	BranchID      uuid.UUID
	UserMessageID uuid.UUID
	Model         *domain.AIModel
	History       []LLMMessage
}

type EventType string

const (
	EventChatCreated EventType = "chat.created"
	EventDelta       EventType = "response.output_text.delta"
	EventCompleted   EventType = "response.completed"
	EventError       EventType = "response.error"
)

type Event struct {
	Type      EventType
	ChatID    uuid.UUID
	BranchID  uuid.UUID
	Title     string
	Delta     string
	MessageID *uuid.UUID
	Usage     *domain.Usage
	Cost      decimal.Decimal
	Err       error
}

// EventSink delivers an event to the client. An error means the client is
// gone and the turn is treated as aborted.
type EventSink func(Event) error

// Alerter receives operational errors worth a human look.
type Alerter interface {
	LogError(err error, where string)
}

type TurnDeps struct {
	Cfg      *config.Config
	Store    repository.Store
	Chats    *ChatService
	Branches *BranchService
	Messages *MessageService
	Billing  *BillingService
	LLM      LLMGateway
	Models   ModelCatalog
	Titles   *TitleGenerator
	Metrics  *metrics.Metrics
	Alerter  Alerter
}

// TurnService runs one user turn: persist the user side, stream the answer,
// persist the answer.
type TurnService struct {
	cfg      *config.Config
	store    repository.Store
	chats    *ChatService
	branches *BranchService
	messages *MessageService
	billing  *BillingService
	llm      LLMGateway
	models   ModelCatalog
	titles   *TitleGenerator
	metrics  *metrics.Metrics
	alerter  Alerter
}

func NewTurnService(deps TurnDeps) *TurnService {
	return &TurnService{
		cfg:      deps.Cfg,
		store:    deps.Store,
		chats:    deps.Chats,
		branches: deps.Branches,
		messages: deps.Messages,
		billing:  deps.Billing,
		llm:      deps.LLM,
		models:   deps.Models,
		titles:   deps.Titles,
		metrics:  deps.Metrics,
		alerter:  deps.Alerter,
	}
}

// Prepare validates the request and commits the user side of the turn. Any
// error returned here means nothing was streamed and no assistant message
// exists.
func (s *TurnService) Prepare(ctx context.Context, user *domain.User, req TurnRequest) (*PreparedTurn, error) {
	if len(req.Messages) == 0 {
		return nil, domain.ErrNoMessages
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != domain.RoleUser {
		return nil, fmt.Errorf("%w: last message must come from the user", domain.ErrInvalidRequest)
	}
	if err := last.Content.Validate(); err != nil {
		return nil, err
	}
	history, err := priorHistory(req.Messages[:len(req.Messages)-1])
	if err != nil {
		return nil, err
	}
	history = append(history, last)

	modelID := req.Model
	if modelID == "" {
		modelID = user.Model(s.cfg.DefaultModel)
	}
	model, err := s.models.GetModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("get model %q: %w", modelID, err)
	}
	if err := EnsureCanAfford(user, model); err != nil {
		return nil, err
	}

	t := &PreparedTurn{User: user, Model: model, History: history}
	switch {
	case req.ChatID == nil:
		err = s.startChat(ctx, t, last.Content)
	case req.IsEdit && req.LastMessageID != nil:
		err = s.editTurn(ctx, t, *req.ChatID, req.BranchID, *req.LastMessageID, last.Content)
	default:
		err = s.appendTurn(ctx, t, *req.ChatID, req.BranchID, last.Content)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTurn(string(t.Kind))
	return t, nil
}

// priorHistory drops earlier turns that carry no content, such as an answer
// aborted before its first token. Malformed parts are still rejected.
func priorHistory(msgs []LLMMessage) ([]LLMMessage, error) {
	out := make([]LLMMessage, 0, len(msgs)+1)
	for _, m := range msgs {
		if err := m.Content.Validate(); err != nil {
			if errors.Is(err, domain.ErrEmptyContent) {
				continue
			}
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// startChat creates the chat, its root branch and the first user message in
// one transaction, so a failed post leaves no empty chat behind.
func (s *TurnService) startChat(ctx context.Context, t *PreparedTurn, content domain.Content) error {
	t.Kind = TurnNew

	return s.store.ExecTx(ctx, func(q sqlc.Querier) error {
		chat, err := createChat(ctx, q, t.User.ID, FallbackTitle(content), t.Model.ID)
		if err != nil {
			return err
		}

		branch, err := ensureDefaultBranch(ctx, q, chat.ID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.ErrChatNotFound
		}

		msg, _, err := postMessage(ctx, q, branch.ID, domain.RoleUser, content)
		if err != nil {
			return err
		}

		chat.ActiveBranchID = &branch.ID
		t.Chat = chat
		t.BranchID = branch.ID
		t.UserMessageID = msg.ID
		return nil
	})
}

// turnBranch picks the branch a turn works on: the explicit one, else the
// chat's active branch, which is created for chats that have none.
func (s *TurnService) turnBranch(ctx context.Context, chatID uuid.UUID, explicit *uuid.UUID) (*domain.Branch, error) {
	branch, err := s.branches.EnsureDefaultBranch(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrChatNotFound
	}
	if explicit == nil {
		return branch, nil
	}
	return s.branches.GetBranch(ctx, chatID, *explicit)
}

func (s *TurnService) appendTurn(ctx context.Context, t *PreparedTurn, chatID uuid.UUID, branchID *uuid.UUID, content domain.Content) error {
	t.Kind = TurnAppend

	chat, err := s.chats.Owned(ctx, t.User.ID, chatID)
	if err != nil {
		return err
	}

	branch, err := s.turnBranch(ctx, chatID, branchID)
	if err != nil {
		return err
	}

	msg, _, err := s.branches.PostMessage(ctx, branch.ID, domain.RoleUser, content)
	if err != nil {
		return err
	}

	t.Chat = chat
	t.BranchID = branch.ID
	t.UserMessageID = msg.ID
	return nil
}

func (s *TurnService) editTurn(ctx context.Context, t *PreparedTurn, chatID uuid.UUID, branchID *uuid.UUID, messageID uuid.UUID, content domain.Content) error {
	t.Kind = TurnEdit

	if _, err := s.chats.Owned(ctx, t.User.ID, chatID); err != nil {
		return err
	}

	base, err := s.turnBranch(ctx, chatID, branchID)
	if err != nil {
		return err
	}

	if _, err := s.messages.GetMessage(ctx, chatID, messageID); err != nil {
		return err
	}

	fork, _, err := s.branches.EditAndFork(ctx, EditParams{
		ChatID:    chatID,
		BranchID:  base.ID,
		MessageID: messageID,
		Content:   content,
	})
	if err != nil {
		return err
	}
	s.metrics.RecordFork()

	// The pointer now names a fork, possibly a concurrent one; the answer
	// belongs to the fork this turn created.
	chat, err := s.chats.Owned(ctx, t.User.ID, chatID)
	if err != nil {
		return err
	}

	t.Chat = chat
	t.BranchID = fork.ID
	t.UserMessageID = messageID
	return nil
}

type streamResult struct {
	text    string
	usage   *domain.Usage
	err     error
	aborted bool
}

// Stream produces the assistant answer for a prepared turn. Failures are
// reported to sink as events; the returned error only says the final event
// could not be delivered.
func (s *TurnService) Stream(ctx context.Context, t *PreparedTurn, sink EventSink) error {
	start := time.Now()

	var titleCh <-chan string
	if t.Kind == TurnNew {
		titleCh = s.generateTitle(ctx, t)
		if err := sink(Event{Type: EventChatCreated, ChatID: t.Chat.ID, BranchID: t.BranchID, Title: t.Chat.Title}); err != nil {
			return s.finish(ctx, t, streamResult{aborted: true}, sink, start, titleCh)
		}
	}

	streamCtx, cancel := context.WithTimeout(ctx, config.StreamTimeout)
	defer cancel()

	stream, err := s.llm.StreamChat(streamCtx, LLMRequest{
		Model:        t.Model.ID,
		SystemPrompt: s.cfg.SystemPrompt,
		Messages:     t.History,
	})
	if err != nil {
		return s.finish(ctx, t, streamResult{err: err, aborted: ctx.Err() != nil}, sink, start, titleCh)
	}
	defer stream.Close()

	res := pump(stream, sink)
	if ctx.Err() != nil {
		res.aborted = true
	}
	return s.finish(ctx, t, res, sink, start, titleCh)
}

func pump(stream ChatStream, sink EventSink) streamResult {
	var (
		res  streamResult
		text strings.Builder
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.err = err
			break
		}
		if chunk.Usage != nil {
			res.usage = chunk.Usage
		}
		if chunk.Delta == "" {
			continue
		}
		text.WriteString(chunk.Delta)
		if err := sink(Event{Type: EventDelta, Delta: chunk.Delta}); err != nil {
			res.aborted = true
			break
		}
	}
	res.text = text.String()
	return res
}

// finish is the one place a turn ends, whether it completed, failed upstream
// or was abandoned by the client. Whatever text arrived is saved on the
// turn's branch using a context that outlives the request.
func (s *TurnService) finish(ctx context.Context, t *PreparedTurn, res streamResult, sink EventSink, start time.Time, titleCh <-chan string) error {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.PersistTimeout)
	defer cancel()

	outcome := metrics.OutcomeCompleted
	switch {
	case res.aborted:
		outcome = metrics.OutcomeAborted
	case res.err != nil:
		outcome = metrics.OutcomeError
	}

	var messageID *uuid.UUID
	if res.text != "" {
		msg, _, err := s.branches.PostMessage(pctx, t.BranchID, domain.RoleAssistant, domain.TextContent(res.text))
		if err != nil {
			slog.Error("failed to persist assistant message",
				"error", err,
				"chat_id", t.Chat.ID,
				"branch_id", t.BranchID,
				"outcome", outcome,
			)
			if outcome == metrics.OutcomeCompleted {
				res.err = err
				outcome = metrics.OutcomeError
			}
		} else {
			messageID = &msg.ID
		}
	}

	if err := s.store.TouchChat(pctx, t.Chat.ID); err != nil {
		slog.Warn("failed to touch chat", "error", err, "chat_id", t.Chat.ID)
	}

	s.metrics.RecordStream(outcome, time.Since(start), messageID != nil && outcome != metrics.OutcomeCompleted)

	cost := decimal.Zero
	if res.usage != nil {
		s.metrics.RecordTokens(res.usage.PromptTokens, res.usage.CompletionTokens)
		if messageID != nil {
			var err error
			cost, err = s.billing.ChargeUsage(pctx, UsageCharge{
				UserID:        t.User.ID,
				ChatID:        t.Chat.ID,
				Model:         t.Model,
				Usage:         *res.usage,
				MarkupPercent: s.cfg.MarkupPercent(t.User.IsPremium()),
			})
			if err != nil {
				slog.Error("failed to charge usage", "error", err, "user_id", t.User.ID, "chat_id", t.Chat.ID)
				s.alert(err, fmt.Sprintf("charge usage: user %d, chat %s", t.User.ID, t.Chat.ID))
			}
		}
	}

	switch outcome {
	case metrics.OutcomeAborted:
		slog.Info("turn aborted by client",
			"chat_id", t.Chat.ID,
			"branch_id", t.BranchID,
			"persisted", messageID != nil,
			"chars", len(res.text),
		)
		return nil

	case metrics.OutcomeError:
		slog.Error("assistant stream failed",
			"error", res.err,
			"chat_id", t.Chat.ID,
			"model", t.Model.ID,
			"persisted", messageID != nil,
		)
		err := sink(Event{Type: EventError, ChatID: t.Chat.ID, BranchID: t.BranchID, MessageID: messageID, Err: res.err})
		if errors.Is(res.err, domain.ErrUpstream) {
			s.alert(res.err, fmt.Sprintf("stream %s: chat %s", t.Model.ID, t.Chat.ID))
		}
		return err
	}

	ev := Event{
		Type:      EventCompleted,
		ChatID:    t.Chat.ID,
		BranchID:  t.BranchID,
		MessageID: messageID,
		Usage:     res.usage,
		Cost:      cost,
	}
	if titleCh != nil {
		select {
		case title := <-titleCh:
			ev.Title = title
		default:
		}
	}
	return sink(ev)
}

// generateTitle names a new chat in the background. The chat already carries
// the truncated fallback, so a slow model never holds up the answer.
func (s *TurnService) generateTitle(ctx context.Context, t *PreparedTurn) <-chan string {
	ch := make(chan string, 1)
	if s.titles == nil {
		close(ch)
		return ch
	}

	first := t.History[len(t.History)-1].Content
	go func() {
		tctx := context.WithoutCancel(ctx)
		title := s.titles.Generate(tctx, first)
		if title != t.Chat.Title {
			if _, err := s.chats.Rename(tctx, t.User.ID, t.Chat.ID, title); err != nil {
				slog.Warn("failed to save generated title", "error", err, "chat_id", t.Chat.ID)
				title = t.Chat.Title
			}
		}
		ch <- title
	}()
	return ch
}

func (s *TurnService) alert(err error, where string) {
	if s.alerter != nil {
		s.alerter.LogError(err, where)
	}
}
