package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository/memstore"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *memstore.Store
	chats    *ChatService
	branches *BranchService
	messages *MessageService
	resolver *ResolverService
	billing  *BillingService
	users    *UserService
	user     *domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	branches := NewBranchService(store)
	messages := NewMessageService(store)
	resolver := NewResolverService(store)
	env := &testEnv{
		store:    store,
		chats:    NewChatService(store, branches, messages, resolver),
		branches: branches,
		messages: messages,
		resolver: resolver,
		billing:  NewBillingService(store),
		users:    NewUserService(store),
	}
	env.user = env.newUser(t, "alice@example.com")
	return env
}

func (e *testEnv) newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	row, err := e.store.CreateUser(context.Background(), sqlc.CreateUserParams{Email: email, DisplayName: email})
	require.NoError(t, err)
	return rowToUser(row)
}

// reloadUser picks up balance and premium changes made through the store.
func (e *testEnv) reloadUser(t *testing.T) *domain.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), e.user.ID)
	require.NoError(t, err)
	e.user = u
	return u
}

// newChat creates a chat with its root branch.
func (e *testEnv) newChat(t *testing.T) (*domain.Chat, *domain.Branch) {
	t.Helper()
	ctx := context.Background()
	chat, err := e.chats.Create(ctx, e.user.ID, "test chat", "free/model:free")
	require.NoError(t, err)
	root, err := e.branches.EnsureDefaultBranch(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, root)
	return chat, root
}

func (e *testEnv) post(t *testing.T, branchID uuid.UUID, role domain.Role, text string) *domain.Message {
	t.Helper()
	msg, _, err := e.branches.PostMessage(context.Background(), branchID, role, domain.TextContent(text))
	require.NoError(t, err)
	return msg
}

// flatChat builds [u1, a1, u2, a2] on the root branch.
func (e *testEnv) flatChat(t *testing.T) (*domain.Chat, *domain.Branch, []*domain.Message) {
	t.Helper()
	chat, root := e.newChat(t)
	msgs := []*domain.Message{
		e.post(t, root.ID, domain.RoleUser, "u1"),
		e.post(t, root.ID, domain.RoleAssistant, "a1"),
		e.post(t, root.ID, domain.RoleUser, "u2"),
		e.post(t, root.ID, domain.RoleAssistant, "a2"),
	}
	return chat, root, msgs
}

func (e *testEnv) resolved(t *testing.T, branchID uuid.UUID) []domain.ResolvedMessage {
	t.Helper()
	msgs, err := e.branches.ResolveMessages(context.Background(), branchID)
	require.NoError(t, err)
	return msgs
}

func (e *testEnv) texts(t *testing.T, branchID uuid.UUID) []string {
	t.Helper()
	var out []string
	for _, m := range e.resolved(t, branchID) {
		out = append(out, PlainText(m.Content))
	}
	return out
}

func positions(msgs []domain.ResolvedMessage) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Position)
	}
	return out
}

type fakeStream struct {
	chunks []StreamChunk
	err    error
	i      int
}

func (s *fakeStream) Recv() (StreamChunk, error) {
	if s.i < len(s.chunks) {
		c := s.chunks[s.i]
		s.i++
		return c, nil
	}
	if s.err != nil {
		return StreamChunk{}, s.err
	}
	return StreamChunk{}, io.EOF
}

func (s *fakeStream) Close() error { return nil }

// fakeLLM replays the configured chunks. err is returned once they run out.
type fakeLLM struct {
	mu          sync.Mutex
	chunks      []StreamChunk
	err         error
	openErr     error
	completion  string
	completeErr error
	requests    []LLMRequest
	completes   int
}

func (f *fakeLLM) StreamChat(ctx context.Context, req LLMRequest) (ChatStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeStream{chunks: f.chunks, err: f.err}, nil
}

func (f *fakeLLM) Complete(ctx context.Context, req LLMRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	return f.completion, f.completeErr
}

type fakeCatalog map[string]domain.AIModel

func (c fakeCatalog) ListModels(ctx context.Context) ([]domain.AIModel, error) {
	models := make([]domain.AIModel, 0, len(c))
	for _, m := range c {
		models = append(models, m)
	}
	return models, nil
}

func (c fakeCatalog) GetModel(ctx context.Context, modelID string) (*domain.AIModel, error) {
	m, ok := c[modelID]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	return &m, nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	errors []error
}

func (a *fakeAlerter) LogError(err error, where string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors = append(a.errors, err)
}

func (a *fakeAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.errors)
}
