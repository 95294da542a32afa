package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository/memstore"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	freeModel = "free/model:free"
	paidModel = "paid/model"
)

type turnEnv struct {
	*testEnv
	llm     *fakeLLM
	alerter *fakeAlerter
	turns   *TurnService
}

func newTurnEnv(t *testing.T, llm *fakeLLM) *turnEnv {
	t.Helper()
	env := newTestEnv(t)
	alerter := &fakeAlerter{}
	cfg := &config.Config{
		DefaultModel: freeModel,
		SystemPrompt: "be brief",
	}
	models := fakeCatalog{
		freeModel: {ID: freeModel},
		paidModel: {ID: paidModel, PromptPrice: 1, CompletionPrice: 2},
	}
	turns := NewTurnService(TurnDeps{
		Cfg:      cfg,
		Store:    env.store,
		Chats:    env.chats,
		Branches: env.branches,
		Messages: env.messages,
		Billing:  env.billing,
		LLM:      llm,
		Models:   models,
		Alerter:  alerter,
	})
	return &turnEnv{testEnv: env, llm: llm, alerter: alerter, turns: turns}
}

func userTurn(text string) []LLMMessage {
	return []LLMMessage{{Role: domain.RoleUser, Content: domain.TextContent(text)}}
}

type eventLog struct {
	events []Event
	// failOn makes the sink fail on the first event of this type.
	failOn EventType
}

func (l *eventLog) sink(ev Event) error {
	l.events = append(l.events, ev)
	if l.failOn != "" && ev.Type == l.failOn {
		return errors.New("client went away")
	}
	return nil
}

func (l *eventLog) types() []EventType {
	var out []EventType
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func (l *eventLog) last() Event {
	return l.events[len(l.events)-1]
}

func TestTurnNewChat(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "Hi"}, {Delta: " there"}, {Usage: &domain.Usage{PromptTokens: 3, CompletionTokens: 2}}}})
	ctx := context.Background()

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{Messages: userTurn("hello")})
	require.NoError(t, err)
	assert.Equal(t, TurnNew, turn.Kind)
	assert.Equal(t, "hello", turn.Chat.Title)
	assert.Equal(t, freeModel, turn.Model.ID)

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	assert.Equal(t, []EventType{EventChatCreated, EventDelta, EventDelta, EventCompleted}, log.types())
	assert.Equal(t, turn.Chat.ID, log.events[0].ChatID)
	assert.Equal(t, turn.BranchID, log.events[0].BranchID)

	done := log.last()
	require.NotNil(t, done.MessageID)
	require.NotNil(t, done.Usage)
	assert.Equal(t, 2, done.Usage.CompletionTokens)
	assert.True(t, done.Cost.IsZero())

	assert.Equal(t, []string{"hello", "Hi there"}, env.texts(t, turn.BranchID))

	view, err := env.chats.Get(ctx, env.user.ID, turn.Chat.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, turn.BranchID, view.BranchID)

	require.Len(t, env.llm.requests, 1)
	assert.Equal(t, "be brief", env.llm.requests[0].SystemPrompt)
	assert.Equal(t, freeModel, env.llm.requests[0].Model)
}

func TestTurnAppend(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "a3"}}})
	ctx := context.Background()
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, Messages: userTurn("u3")})
	require.NoError(t, err)
	assert.Equal(t, TurnAppend, turn.Kind)
	assert.Equal(t, root.ID, turn.BranchID)

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))
	assert.Equal(t, []EventType{EventDelta, EventCompleted}, log.types())
	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3", "a3"}, env.texts(t, root.ID))
}

func TestTurnAppendToExplicitBranch(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "old branch answer"}}})
	ctx := context.Background()
	chat, root, msgs := env.flatChat(t)
	fork := env.edit(t, chat.ID, root.ID, msgs[0].ID, "edited")

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, BranchID: &root.ID, Messages: userTurn("u3")})
	require.NoError(t, err)
	require.NoError(t, env.turns.Stream(ctx, turn, (&eventLog{}).sink))

	assert.Len(t, env.resolved(t, root.ID), 6)
	assert.Len(t, env.resolved(t, fork.ID), 1)
}

func TestTurnEditForks(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "new answer"}}})
	ctx := context.Background()
	chat, root, msgs := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{
		ChatID:        &chat.ID,
		IsEdit:        true,
		LastMessageID: &msgs[2].ID,
		Messages: []LLMMessage{
			{Role: domain.RoleUser, Content: domain.TextContent("u1")},
			{Role: domain.RoleAssistant, Content: domain.TextContent("a1")},
			{Role: domain.RoleUser, Content: domain.TextContent("u2 rewritten")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TurnEdit, turn.Kind)
	assert.NotEqual(t, root.ID, turn.BranchID)
	assert.Equal(t, msgs[2].ID, turn.UserMessageID)
	require.NotNil(t, turn.Chat.ActiveBranchID)
	assert.Equal(t, turn.BranchID, *turn.Chat.ActiveBranchID)

	require.NoError(t, env.turns.Stream(ctx, turn, (&eventLog{}).sink))

	assert.Equal(t, []string{"u1", "a1", "u2 rewritten", "new answer"}, env.texts(t, turn.BranchID))
	assert.Equal(t, []string{"u1", "a1", "u2", "a2"}, env.texts(t, root.ID))

	v, err := env.chats.Versions(ctx, env.user.ID, chat.ID, msgs[2].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentIndex)
	assert.Len(t, v.Options, 2)

	require.Len(t, env.llm.requests, 1)
	assert.Len(t, env.llm.requests[0].Messages, 3)
}

func TestTurnEditWithoutMessageAppends(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "a3"}}})
	ctx := context.Background()
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, IsEdit: true, Messages: userTurn("u3")})
	require.NoError(t, err)
	assert.Equal(t, TurnAppend, turn.Kind)
	assert.Equal(t, root.ID, turn.BranchID)

	require.NoError(t, env.turns.Stream(ctx, turn, (&eventLog{}).sink))
	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3", "a3"}, env.texts(t, root.ID))

	branches, err := env.chats.Branches(ctx, env.user.ID, chat.ID)
	require.NoError(t, err)
	assert.Len(t, branches, 1)
}

func TestTurnSkipsEmptyEarlierMessages(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "ok"}}})
	ctx := context.Background()
	chat, _, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{
		ChatID: &chat.ID,
		Messages: []LLMMessage{
			{Role: domain.RoleUser, Content: domain.TextContent("u1")},
			{Role: domain.RoleAssistant, Content: domain.TextContent("")},
			{Role: domain.RoleAssistant, Content: nil},
			{Role: domain.RoleUser, Content: domain.TextContent("again")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, env.turns.Stream(ctx, turn, (&eventLog{}).sink))

	require.Len(t, env.llm.requests, 1)
	sent := env.llm.requests[0].Messages
	require.Len(t, sent, 2)
	assert.Equal(t, "u1", PlainText(sent[0].Content))
	assert.Equal(t, "again", PlainText(sent[1].Content))
}

var errInsert = errors.New("insert failed")

// failingInsertStore runs transactions on the wrapped store but fails every
// branch row insert made inside them.
type failingInsertStore struct {
	*memstore.Store
}

func (s failingInsertStore) ExecTx(ctx context.Context, fn func(q sqlc.Querier) error) error {
	return s.Store.ExecTx(ctx, func(q sqlc.Querier) error {
		return fn(failingInsertQuerier{q})
	})
}

type failingInsertQuerier struct {
	sqlc.Querier
}

func (failingInsertQuerier) InsertBranchMessage(ctx context.Context, arg sqlc.InsertBranchMessageParams) (sqlc.BranchMessage, error) {
	return sqlc.BranchMessage{}, errInsert
}

func TestTurnNewChatRollsBackOnFailedPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	turns := NewTurnService(TurnDeps{
		Cfg:    &config.Config{DefaultModel: freeModel},
		Store:  failingInsertStore{env.store},
		LLM:    &fakeLLM{},
		Models: fakeCatalog{freeModel: {ID: freeModel}},
	})

	_, err := turns.Prepare(ctx, env.user, TurnRequest{Messages: userTurn("hello")})
	require.ErrorIs(t, err, errInsert)

	chats, err := env.chats.List(ctx, env.user.ID, ListChatsOptions{IncludeArchived: true, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestTurnUpstreamFailureKeepsPartial(t *testing.T) {
	upstream := fmt.Errorf("%w: connection reset", domain.ErrUpstream)
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "half an "}, {Delta: "answer"}}, err: upstream})
	ctx := context.Background()
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, Messages: userTurn("u3")})
	require.NoError(t, err)

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	assert.Equal(t, []EventType{EventDelta, EventDelta, EventError}, log.types())
	failed := log.last()
	assert.ErrorIs(t, failed.Err, domain.ErrUpstream)
	require.NotNil(t, failed.MessageID)

	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3", "half an answer"}, env.texts(t, root.ID))
	assert.Equal(t, 1, env.alerter.count())
}

func TestTurnOpenFailurePersistsNothing(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{openErr: fmt.Errorf("%w: 503", domain.ErrUpstream)})
	ctx := context.Background()
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, Messages: userTurn("u3")})
	require.NoError(t, err)

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	assert.Equal(t, []EventType{EventError}, log.types())
	assert.Nil(t, log.last().MessageID)
	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3"}, env.texts(t, root.ID))
}

func TestTurnClientAbortKeepsPartial(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "first"}, {Delta: " second"}}})
	ctx := context.Background()
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{ChatID: &chat.ID, Messages: userTurn("u3")})
	require.NoError(t, err)

	log := eventLog{failOn: EventDelta}
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	assert.Equal(t, []EventType{EventDelta}, log.types())
	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3", "first"}, env.texts(t, root.ID))
	assert.Zero(t, env.alerter.count())
}

func TestTurnCanceledContextStillPersists(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "kept"}}})
	chat, root, _ := env.flatChat(t)

	turn, err := env.turns.Prepare(context.Background(), env.user, TurnRequest{ChatID: &chat.ID, Messages: userTurn("u3")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	assert.NotContains(t, log.types(), EventCompleted)
	assert.Equal(t, []string{"u1", "a1", "u2", "a2", "u3", "kept"}, env.texts(t, root.ID))
}

func TestTurnChargesPaidModel(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{chunks: []StreamChunk{{Delta: "paid"}, {Usage: &domain.Usage{PromptTokens: 1000, CompletionTokens: 500}}}})
	ctx := context.Background()

	turn, err := env.turns.Prepare(ctx, env.user, TurnRequest{Model: paidModel, Messages: userTurn("hello")})
	require.NoError(t, err)

	var log eventLog
	require.NoError(t, env.turns.Stream(ctx, turn, log.sink))

	// (1000*1 + 500*2) / 1M with no markup configured
	want := decimal.RequireFromString("0.002")
	done := log.last()
	require.Equal(t, EventCompleted, done.Type)
	assert.True(t, want.Equal(done.Cost), "cost %s", done.Cost)

	user := env.reloadUser(t)
	assert.True(t, want.Neg().Equal(user.Balance), "balance %s", user.Balance)

	txs, err := env.users.ListTransactions(ctx, env.user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxTypeDebit, txs[0].TxType)
	require.NotNil(t, txs[0].ChatID)
	assert.Equal(t, turn.Chat.ID, *txs[0].ChatID)
}

func TestTurnPrepareErrors(t *testing.T) {
	env := newTurnEnv(t, &fakeLLM{})
	ctx := context.Background()
	chat, _, msgs := env.flatChat(t)

	_, err := env.store.UpdateUserBalance(ctx, sqlc.UpdateUserBalanceParams{ID: env.user.ID, Balance: decimal.NewFromInt(-1)})
	require.NoError(t, err)
	broke := env.reloadUser(t)

	otherUser := env.newUser(t, "bob@example.com")
	missing := uuid.New()

	tests := []struct {
		name    string
		user    *domain.User
		req     TurnRequest
		wantErr error
	}{
		{
			name:    "no messages",
			user:    broke,
			req:     TurnRequest{},
			wantErr: domain.ErrNoMessages,
		},
		{
			name:    "empty content",
			user:    broke,
			req:     TurnRequest{Messages: userTurn("   ")},
			wantErr: domain.ErrEmptyContent,
		},
		{
			name: "last message from assistant",
			user: broke,
			req: TurnRequest{Messages: []LLMMessage{
				{Role: domain.RoleUser, Content: domain.TextContent("q")},
				{Role: domain.RoleAssistant, Content: domain.TextContent("a")},
			}},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "malformed earlier message",
			user: broke,
			req: TurnRequest{Messages: []LLMMessage{
				{Role: domain.RoleUser, Content: domain.Content{{Type: "audio", Text: "x"}}},
				{Role: domain.RoleUser, Content: domain.TextContent("x")},
			}},
			wantErr: domain.ErrUnknownPart,
		},
		{
			name:    "unknown model",
			user:    broke,
			req:     TurnRequest{Model: "nope", Messages: userTurn("x")},
			wantErr: domain.ErrModelNotFound,
		},
		{
			name:    "paid model with negative balance",
			user:    broke,
			req:     TurnRequest{Model: paidModel, Messages: userTurn("x")},
			wantErr: domain.ErrInsufficientBalance,
		},
		{
			name:    "unknown chat",
			user:    broke,
			req:     TurnRequest{ChatID: &missing, Messages: userTurn("x")},
			wantErr: domain.ErrChatNotFound,
		},
		{
			name:    "chat of another user",
			user:    otherUser,
			req:     TurnRequest{ChatID: &chat.ID, Messages: userTurn("x")},
			wantErr: domain.ErrChatNotFound,
		},
		{
			name:    "edit of unknown message",
			user:    broke,
			req:     TurnRequest{ChatID: &chat.ID, IsEdit: true, LastMessageID: &missing, Messages: userTurn("x")},
			wantErr: domain.ErrMessageNotFound,
		},
		{
			name:    "append to unknown branch",
			user:    broke,
			req:     TurnRequest{ChatID: &chat.ID, BranchID: &missing, Messages: userTurn("x")},
			wantErr: domain.ErrBranchNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.turns.Prepare(ctx, tt.user, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// free models stay available on a negative balance
	_, err = env.turns.Prepare(ctx, broke, TurnRequest{ChatID: &chat.ID, IsEdit: true, LastMessageID: &msgs[0].ID, Messages: userTurn("free edit")})
	assert.NoError(t, err)
}
