package repository_test

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/set-night/mindchat"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/set-night/mindchat/internal/repository/sqlc"
	"github.com/set-night/mindchat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPgStore connects to TEST_DATABASE_URL and applies migrations. Tests using
// it are skipped when the variable is unset.
func newPgStore(t *testing.T) *repository.PgStore {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrations, err := fs.Sub(mindchat.MigrationsFS, "migrations")
	require.NoError(t, err)
	require.NoError(t, repository.RunMigrations(url, migrations))

	pool, err := repository.NewPool(context.Background(), url, 8, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return repository.NewPgStore(pool)
}

func seedUser(t *testing.T, store repository.Store) sqlc.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), sqlc.CreateUserParams{
		Email:       fmt.Sprintf("%s@test.local", uuid.NewString()),
		DisplayName: "integration",
	})
	require.NoError(t, err)
	return u
}

func TestPgBranchingFlow(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	user := seedUser(t, store)

	branches := service.NewBranchService(store)
	messages := service.NewMessageService(store)
	resolver := service.NewResolverService(store)
	chats := service.NewChatService(store, branches, messages, resolver)

	chat, err := chats.Create(ctx, user.ID, "integration", "m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = chats.Delete(context.Background(), user.ID, chat.ID) })

	root, err := branches.EnsureDefaultBranch(ctx, chat.ID)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, text := range []string{"u1", "a1", "u2", "a2"} {
		role := domain.RoleUser
		if text[0] == 'a' {
			role = domain.RoleAssistant
		}
		m, _, err := branches.PostMessage(ctx, root.ID, role, domain.TextContent(text))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	var (
		wg    sync.WaitGroup
		forks [2]*domain.Branch
	)
	for i := range forks {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			fork, _, err := branches.EditAndFork(ctx, service.EditParams{
				ChatID:    chat.ID,
				BranchID:  root.ID,
				MessageID: ids[2],
				Content:   domain.TextContent(fmt.Sprintf("edit %d", i)),
			})
			if assert.NoError(t, err) {
				forks[i] = fork
			}
		}()
	}
	wg.Wait()
	require.NotNil(t, forks[0])
	require.NotNil(t, forks[1])
	assert.NotEqual(t, forks[0].ID, forks[1].ID)

	for i, fork := range forks {
		msgs, err := branches.ResolveMessages(ctx, fork.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, 2, msgs[2].Position)
		assert.Equal(t, fmt.Sprintf("edit %d", i), service.PlainText(msgs[2].Content))
	}

	v, err := chats.Versions(ctx, user.ID, chat.ID, ids[2], &forks[1].ID)
	require.NoError(t, err)
	assert.Len(t, v.Options, 3)
	assert.Equal(t, root.ID, v.Options[0].BranchID)

	// u2 and everything after it goes, taking both forks
	n, err := chats.TruncateAfter(ctx, user.ID, chat.ID, ids[1])
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	list, err := chats.Branches(ctx, user.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	reloaded, err := chats.Owned(ctx, user.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, *reloaded.ActiveBranchID)
}

func TestPgEnsureDefaultBranchConcurrent(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	user := seedUser(t, store)

	branches := service.NewBranchService(store)
	messages := service.NewMessageService(store)
	chats := service.NewChatService(store, branches, messages, service.NewResolverService(store))

	chat, err := chats.Create(ctx, user.ID, "legacy", "m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = chats.Delete(context.Background(), user.ID, chat.ID) })

	// Messages written before branches existed.
	for _, text := range []string{"u1", "a1", "u2"} {
		_, err := messages.CreateMessage(ctx, chat.ID, domain.RoleUser, domain.TextContent(text))
		require.NoError(t, err)
	}

	const callers = 8
	var (
		wg  sync.WaitGroup
		ids [callers]uuid.UUID
	)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := branches.EnsureDefaultBranch(ctx, chat.ID)
			if assert.NoError(t, err) && assert.NotNil(t, b) {
				ids[i] = b.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}

	list, err := chats.Branches(ctx, user.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	msgs, err := branches.ResolveMessages(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, i, m.Position)
	}
}

func TestPgTruncateCompactsPositions(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	user := seedUser(t, store)

	branches := service.NewBranchService(store)
	messages := service.NewMessageService(store)
	chats := service.NewChatService(store, branches, messages, service.NewResolverService(store))

	chat, err := chats.Create(ctx, user.ID, "compact", "m")
	require.NoError(t, err)
	t.Cleanup(func() { _ = chats.Delete(context.Background(), user.ID, chat.ID) })

	root, err := branches.EnsureDefaultBranch(ctx, chat.ID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, text := range []string{"u1", "a1", "u2", "a2"} {
		m, _, err := branches.PostMessage(ctx, root.ID, domain.RoleUser, domain.TextContent(text))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	// The fork gets a newer row ahead of three older ones, so removing it
	// shifts several rows down at once.
	fork, _, err := branches.EditAndFork(ctx, service.EditParams{ChatID: chat.ID, BranchID: root.ID, MessageID: ids[0], Content: domain.TextContent("u1 edited")})
	require.NoError(t, err)
	_, _, err = branches.PostMessage(ctx, fork.ID, domain.RoleAssistant, domain.TextContent("newer"))
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err = branches.AppendMessage(ctx, fork.ID, id)
		require.NoError(t, err)
	}

	n, err := chats.TruncateAfter(ctx, user.ID, chat.ID, ids[3])
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	msgs, err := branches.ResolveMessages(ctx, fork.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, m := range msgs {
		assert.Equal(t, i, m.Position)
	}
	assert.Equal(t, ids[1:], []uuid.UUID{msgs[1].MessageID, msgs[2].MessageID, msgs[3].MessageID})
}

func TestPgExecTxRollsBack(t *testing.T) {
	store := newPgStore(t)
	ctx := context.Background()
	user := seedUser(t, store)

	sentinel := fmt.Errorf("stop")
	err := store.ExecTx(ctx, func(q sqlc.Querier) error {
		if _, err := q.CreateChat(ctx, sqlc.CreateChatParams{ID: uuid.New(), UserID: user.ID, Title: "ghost", Model: "m"}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	rows, err := store.ListChats(ctx, sqlc.ListChatsParams{UserID: user.ID, IncludeArchived: true, RowLimit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
