package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/vectorstore"
)

type stubTutor struct {
	reply       string
	embedErr    error
	queryVec    []float32
	seenContext string
	seenHistory []*model.ChatMessage
}

func (s *stubTutor) Chat(ctx context.Context, message string, docContext string, history []*model.ChatMessage) (*ai.GenResult, error) {
	s.seenContext = docContext
	s.seenHistory = history
	return &ai.GenResult{Text: s.reply, Provider: "test"}, nil
}

type fakeChatStore struct {
	listCalls int
	inserted  []*model.ChatMessage
	recent    []*model.ChatMessage
}

func (f *fakeChatStore) Insert(ctx context.Context, msg *model.ChatMessage) error {
	f.inserted = append(f.inserted, msg)
	return nil
}

func (f *fakeChatStore) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	f.listCalls++
	return f.recent, nil
}

func (f *fakeChatStore) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	deleted := int64(len(f.inserted))
	f.inserted = nil
	return deleted, nil
}

func (s *stubTutor) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return s.queryVec, nil
}

func newChatFixture(t *testing.T, tutor *stubTutor) *ChatService {
	t.Helper()
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	require.NoError(t, store.Store(context.Background(), []*model.ChunkEmbedding{
		{FileID: "f1", ChunkIndex: 0, Content: "Mitochondria produce ATP.", Embedding: []float32{1, 0}},
	}))
	retrieval := NewRetrievalService(store, testCoreConfig())
	return NewChatService(tutor, retrieval, nil, testCoreConfig())
}

func TestChatGroundsOnFileContext(t *testing.T) {
	tutor := &stubTutor{reply: "grounded answer", queryVec: []float32{1, 0}}
	svc := newChatFixture(t, tutor)

	res, err := svc.Chat(context.Background(), "what makes ATP?", "", "f1", true)
	require.NoError(t, err)
	require.True(t, res.UsedContext)
	require.Equal(t, "grounded answer", res.Reply)
	require.Equal(t, "test", res.Provider)
	require.Contains(t, tutor.seenContext, "Mitochondria produce ATP.")
	require.True(t, strings.HasPrefix(res.SessionID, "session_"))
}

func TestChatWithoutFileSkipsRetrieval(t *testing.T) {
	tutor := &stubTutor{reply: "general answer", queryVec: []float32{1, 0}}
	svc := newChatFixture(t, tutor)

	res, err := svc.Chat(context.Background(), "explain osmosis", "session_1_abc", "", true)
	require.NoError(t, err)
	require.False(t, res.UsedContext)
	require.Empty(t, tutor.seenContext)
	require.Equal(t, "session_1_abc", res.SessionID)
}

func TestChatDegradesWhenEmbeddingFails(t *testing.T) {
	tutor := &stubTutor{reply: "still answered", embedErr: fmt.Errorf("vendor down")}
	svc := newChatFixture(t, tutor)

	res, err := svc.Chat(context.Background(), "question", "", "f1", true)
	require.NoError(t, err)
	require.False(t, res.UsedContext)
	require.Equal(t, "still answered", res.Reply)
}

func TestChatNoContextBelowFloor(t *testing.T) {
	// query vector orthogonal to the stored chunk never clears 0.7
	tutor := &stubTutor{reply: "answer", queryVec: []float32{0, 1}}
	svc := newChatFixture(t, tutor)

	res, err := svc.Chat(context.Background(), "unrelated question", "", "f1", true)
	require.NoError(t, err)
	require.False(t, res.UsedContext)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc := newChatFixture(t, &stubTutor{reply: "x"})
	_, err := svc.Chat(context.Background(), "   ", "", "", true)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatHistoryToggle(t *testing.T) {
	tutor := &stubTutor{reply: "answer", queryVec: []float32{1, 0}}
	chats := &fakeChatStore{recent: []*model.ChatMessage{
		{SessionID: "session_1_abc", UserMessage: "earlier question", AIResponse: "earlier answer"},
	}}
	store, err := vectorstore.New("memory", vectorstore.Deps{})
	require.NoError(t, err)
	svc := NewChatService(tutor, NewRetrievalService(store, testCoreConfig()), chats, testCoreConfig())

	_, err = svc.Chat(context.Background(), "follow up", "session_1_abc", "", false)
	require.NoError(t, err)
	require.Zero(t, chats.listCalls)
	require.Empty(t, tutor.seenHistory)
	// the turn is persisted even when history is excluded from the prompt
	require.Len(t, chats.inserted, 1)

	_, err = svc.Chat(context.Background(), "another follow up", "session_1_abc", "", true)
	require.NoError(t, err)
	require.Equal(t, 1, chats.listCalls)
	require.Len(t, tutor.seenHistory, 1)
	require.Equal(t, "earlier question", tutor.seenHistory[0].UserMessage)
}

func TestChatHistoryWithoutRepo(t *testing.T) {
	svc := newChatFixture(t, &stubTutor{reply: "x"})
	messages, err := svc.History(context.Background(), "session_1_abc", 0)
	require.NoError(t, err)
	require.Nil(t, messages)

	deleted, err := svc.ClearSession(context.Background(), "session_1_abc")
	require.NoError(t, err)
	require.Zero(t, deleted)
}
