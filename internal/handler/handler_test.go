package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository/memstore"
	"github.com/set-night/mindchat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "free/model:free"

type stubStream struct {
	chunks []service.StreamChunk
	err    error
}

func (s *stubStream) Recv() (service.StreamChunk, error) {
	if len(s.chunks) > 0 {
		c := s.chunks[0]
		s.chunks = s.chunks[1:]
		return c, nil
	}
	if s.err != nil {
		return service.StreamChunk{}, s.err
	}
	return service.StreamChunk{}, io.EOF
}

func (s *stubStream) Close() error { return nil }

type stubLLM struct {
	chunks []string
	err    error
}

func (l *stubLLM) StreamChat(ctx context.Context, req service.LLMRequest) (service.ChatStream, error) {
	s := &stubStream{err: l.err}
	for _, d := range l.chunks {
		s.chunks = append(s.chunks, service.StreamChunk{Delta: d})
	}
	return s, nil
}

func (l *stubLLM) Complete(ctx context.Context, req service.LLMRequest) (string, error) {
	return "", errors.New("not used")
}

type stubCatalog []domain.AIModel

func (c stubCatalog) ListModels(ctx context.Context) ([]domain.AIModel, error) {
	return c, nil
}

func (c stubCatalog) GetModel(ctx context.Context, id string) (*domain.AIModel, error) {
	for _, m := range c {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, domain.ErrModelNotFound
}

type testServer struct {
	router     *gin.Engine
	chats      *service.ChatService
	branches   *service.BranchService
	user       *domain.User
	token      string
	adminToken string
}

func newTestServer(t *testing.T, llm service.LLMGateway) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memstore.New()
	cfg := &config.Config{
		DefaultModel: testModel,
		AdminEmails:  []string{"admin@example.com"},
	}
	models := stubCatalog{
		{ID: testModel, Name: "Free"},
		{ID: "paid/big", Name: "Big", PromptPrice: 3, CompletionPrice: 15, ContextLength: 200000},
		{ID: "paid/small", Name: "Small", PromptPrice: 0.1, CompletionPrice: 0.4, ContextLength: 8000},
	}

	branches := service.NewBranchService(store)
	messages := service.NewMessageService(store)
	resolver := service.NewResolverService(store)
	chats := service.NewChatService(store, branches, messages, resolver)
	billing := service.NewBillingService(store)
	users := service.NewUserService(store)
	turns := service.NewTurnService(service.TurnDeps{
		Cfg:      cfg,
		Store:    store,
		Chats:    chats,
		Branches: branches,
		Messages: messages,
		Billing:  billing,
		LLM:      llm,
		Models:   models,
	})

	h := New(Deps{
		Cfg:            cfg,
		UserService:    users,
		ChatService:    chats,
		TurnService:    turns,
		BillingService: billing,
		PremiumService: service.NewPremiumService(store),
		Models:         models,
		RateCounter:    store,
	})
	r := gin.New()
	h.Register(r)

	user, token, err := users.Create(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	_, adminToken, err := users.Create(ctx, "admin@example.com", "Admin")
	require.NoError(t, err)

	return &testServer{
		router:     r,
		chats:      chats,
		branches:   branches,
		user:       user,
		token:      token,
		adminToken: adminToken,
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// seedChat creates [u1, a1, u2, a2] for the test user.
func (s *testServer) seedChat(t *testing.T) (*domain.Chat, *domain.Branch, []*domain.Message) {
	t.Helper()
	ctx := context.Background()
	chat, err := s.chats.Create(ctx, s.user.ID, "seeded", testModel)
	require.NoError(t, err)
	root, err := s.branches.EnsureDefaultBranch(ctx, chat.ID)
	require.NoError(t, err)

	var msgs []*domain.Message
	for i, text := range []string{"u1", "a1", "u2", "a2"} {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		m, _, err := s.branches.PostMessage(ctx, root.ID, role, domain.TextContent(text))
		require.NoError(t, err)
		msgs = append(msgs, m)
	}
	return chat, root, msgs
}

func sseEvents(t *testing.T, body string) []eventResponse {
	t.Helper()
	var events []eventResponse
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev eventResponse
		require.NoError(t, json.Unmarshal([]byte(data), &ev))
		events = append(events, ev)
	}
	return events
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/me", "mc_wrong", nil).Code)

	w := s.do(t, http.MethodGet, "/api/me", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[userResponse](t, w)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, testModel, me.SelectedModel)
	assert.Equal(t, "0.0000", me.Balance)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetChatAndBranches(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	chat, root, _ := s.seedChat(t)

	w := s.do(t, http.MethodGet, "/api/chats/"+chat.ID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[chatResponse](t, w)
	assert.Equal(t, chat.ID, got.ID)
	require.NotNil(t, got.BranchID)
	assert.Equal(t, root.ID, *got.BranchID)
	assert.Len(t, got.Messages, 4)

	w = s.do(t, http.MethodGet, "/api/chats/"+chat.ID.String()+"/branches", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	branches := decode[struct {
		Branches []branchResponse `json:"branches"`
	}](t, w)
	assert.Len(t, branches.Branches, 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/chats/"+uuid.NewString(), s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/chats/not-a-uuid", s.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/chats/"+chat.ID.String(), s.adminToken, nil).Code)
}

func TestCompletionsNewChat(t *testing.T) {
	s := newTestServer(t, &stubLLM{chunks: []string{"Hello", ", world"}})

	w := s.do(t, http.MethodPost, "/api/chat/completions", s.token, map[string]any{
		"messages": []map[string]any{
			{"role": "system", "content": "ignored"},
			{"role": "user", "content": "hi there"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 4)
	assert.Equal(t, service.EventChatCreated, events[0].Type)
	assert.Equal(t, "Hello", events[1].Delta)
	assert.Equal(t, ", world", events[2].Delta)
	assert.Equal(t, service.EventCompleted, events[3].Type)
	require.NotNil(t, events[0].ChatID)
	require.NotNil(t, events[3].MessageID)

	w = s.do(t, http.MethodGet, "/api/chats/"+events[0].ChatID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[chatResponse](t, w)
	assert.Equal(t, "hi there", got.Title)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, domain.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, domain.TextContent("Hello, world"), got.Messages[1].Content)
}

func TestCompletionsEditThenNavigate(t *testing.T) {
	s := newTestServer(t, &stubLLM{chunks: []string{"edited answer"}})
	chat, root, msgs := s.seedChat(t)

	w := s.do(t, http.MethodPost, "/api/chat/completions", s.token, map[string]any{
		"chatId":        chat.ID,
		"isEdit":        true,
		"lastMessageId": msgs[0].ID,
		"messages":      []map[string]any{{"role": "user", "content": "u1 edited"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	events := sseEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	done := events[len(events)-1]
	require.Equal(t, service.EventCompleted, done.Type)
	require.NotNil(t, done.BranchID)
	fork := *done.BranchID
	assert.NotEqual(t, root.ID, fork)

	path := fmt.Sprintf("/api/chats/%s/messages/%s/branches", chat.ID, msgs[0].ID)
	w = s.do(t, http.MethodGet, path, s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	versions := decode[versionsResponse](t, w)
	assert.Equal(t, fork, versions.CurrentBranchID)
	assert.Equal(t, 1, versions.CurrentIndex)
	require.Len(t, versions.Options, 2)
	assert.Equal(t, root.ID, versions.Options[0].BranchID)
	assert.Equal(t, domain.TextContent("u1 edited"), versions.Options[1].Content)

	w = s.do(t, http.MethodGet, path+"?currentBranchId="+root.ID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[versionsResponse](t, w).CurrentIndex)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/chats/%s/branches/%s/select", chat.ID, root.ID), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/chats/"+chat.ID.String(), s.token, nil)
	got := decode[chatResponse](t, w)
	assert.Equal(t, root.ID, *got.ActiveBranchID)
	assert.Len(t, got.Messages, 4)
}

func TestCompletionsRejectsBeforeStreaming(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	chat, _, _ := s.seedChat(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{name: "no messages", body: map[string]any{"messages": []any{}}, want: http.StatusBadRequest},
		{name: "unknown role", body: map[string]any{"messages": []map[string]any{{"role": "tool", "content": "x"}}}, want: http.StatusBadRequest},
		{name: "unknown model", body: map[string]any{"model": "nope", "messages": []map[string]any{{"role": "user", "content": "x"}}}, want: http.StatusNotFound},
		{name: "unknown chat", body: map[string]any{"chatId": uuid.New(), "messages": []map[string]any{{"role": "user", "content": "x"}}}, want: http.StatusNotFound},
		{name: "edit without message", body: map[string]any{"chatId": chat.ID, "isEdit": true, "messages": []map[string]any{{"role": "user", "content": "x"}}}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/chat/completions", s.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestCompletionsUpstreamError(t *testing.T) {
	s := newTestServer(t, &stubLLM{chunks: []string{"partial"}, err: fmt.Errorf("%w: reset", domain.ErrUpstream)})
	chat, root, _ := s.seedChat(t)

	w := s.do(t, http.MethodPost, "/api/chat/completions", s.token, map[string]any{
		"chatId":   chat.ID,
		"messages": []map[string]any{{"role": "user", "content": "u3"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	events := sseEvents(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, service.EventError, events[1].Type)
	assert.NotEmpty(t, events[1].Error)
	require.NotNil(t, events[1].MessageID)

	msgs, err := s.branches.ResolveMessages(context.Background(), root.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 6)
	assert.Equal(t, domain.TextContent("partial"), msgs[5].Content)
}

func TestUpdateChatAndShare(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	chat, _, _ := s.seedChat(t)
	path := "/api/chats/" + chat.ID.String()

	w := s.do(t, http.MethodPatch, path, s.token, map[string]any{"title": "Renamed", "visibility": "public", "pinned": true})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[chatResponse](t, w)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, domain.VisibilityPublic, got.Visibility)
	require.NotNil(t, got.SharePath)
	assert.NotNil(t, got.PinnedAt)

	w = s.do(t, http.MethodGet, "/share/"+*got.SharePath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	shared := decode[chatResponse](t, w)
	assert.Nil(t, shared.SharePath)
	assert.Len(t, shared.Messages, 4)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, path, s.token, map[string]any{"model": "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPatch, path, s.token, map[string]any{"visibility": "friends"}).Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, s.token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/share/"+*got.SharePath, "", nil).Code)
}

func TestTruncateAfterEndpoint(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	chat, _, msgs := s.seedChat(t)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/chats/%s/messages/%s/after", chat.ID, msgs[2].ID), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/chats/%s/messages/%s/after", chat.ID, uuid.New()), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0}`, w.Body.String())
}

func TestModelsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubLLM{})

	w := s.do(t, http.MethodGet, "/api/models?sort=price_desc", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Models []modelResponse `json:"models"`
	}](t, w)
	require.Len(t, resp.Models, 3)
	assert.Equal(t, "paid/big", resp.Models[0].ID)

	w = s.do(t, http.MethodGet, "/api/models?sort=free", s.token, nil)
	resp = decode[struct {
		Models []modelResponse `json:"models"`
	}](t, w)
	require.Len(t, resp.Models, 1)
	assert.True(t, resp.Models[0].Free)

	w = s.do(t, http.MethodPut, "/api/me/model", s.token, map[string]any{"model": "paid/small"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/me", s.token, nil)
	assert.Equal(t, "paid/small", decode[userResponse](t, w).SelectedModel)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t, &stubLLM{})
	creditPath := fmt.Sprintf("/api/admin/users/%d/credit", s.user.ID)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, creditPath, s.token, map[string]any{"amount": "5"}).Code)

	w := s.do(t, http.MethodPost, creditPath, s.adminToken, map[string]any{"amount": "5"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"userId":%d,"balance":"5.0000"}`, s.user.ID), w.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, creditPath, s.adminToken, map[string]any{"amount": "-1"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, creditPath, s.adminToken, map[string]any{"amount": "lots"}).Code)

	w = s.do(t, http.MethodPost, "/api/admin/users", s.adminToken, map[string]any{"email": "carol@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		User  userResponse `json:"user"`
		Token string       `json:"token"`
	}](t, w)
	assert.Equal(t, "carol@example.com", created.User.Email)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/me", created.Token, nil).Code)

	w = s.do(t, http.MethodPost, "/api/me/premium", s.token, map[string]any{"plan": "1m"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/me/transactions", s.token, nil)
	txs := decode[struct {
		Transactions []transactionResponse `json:"transactions"`
	}](t, w)
	assert.Len(t, txs.Transactions, 2)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrChatNotFound, http.StatusNotFound},
		{domain.ErrMessageNotOnBranch, http.StatusNotFound},
		{domain.ErrNoMessages, http.StatusBadRequest},
		{domain.ErrInsufficientBalance, http.StatusPaymentRequired},
		{fmt.Errorf("%w: x", domain.ErrInvalidState), http.StatusConflict},
		{domain.ErrTransactionConflict, http.StatusConflict},
		{fmt.Errorf("%w: x", domain.ErrUpstream), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := errorStatus(tt.err)
		assert.Equal(t, tt.want, status, tt.err.Error())
	}

	_, msg := errorStatus(errors.New("secret dsn"))
	assert.Equal(t, "internal error", msg)
}
