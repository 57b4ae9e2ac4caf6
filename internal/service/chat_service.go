package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/studyforge/studyforge/internal/ai"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
	"github.com/studyforge/studyforge/internal/pkg/ids"
)

const embedTaskQuery = "retrieval_query"

// ChatStore persists chat turns. A nil store disables history and
// persistence, matching the no-database deployment.
type ChatStore interface {
	Insert(ctx context.Context, msg *model.ChatMessage) error
	ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

// TutorAI is the slice of the AI layer the chat flow needs.
type TutorAI interface {
	Chat(ctx context.Context, message string, docContext string, history []*model.ChatMessage) (*ai.GenResult, error)
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// ChatResult is the answer to one chat turn. UsedContext tells the
// caller whether document grounding actually happened; retrieval
// failures degrade to an ungrounded answer instead of erroring.
type ChatResult struct {
	Reply       string `json:"reply"`
	SessionID   string `json:"session_id"`
	Provider    string `json:"provider"`
	Mock        bool   `json:"mock"`
	UsedContext bool   `json:"used_context"`
}

type ChatService struct {
	aiMgr     TutorAI
	retrieval *RetrievalService
	chats     ChatStore
	cfg       config.CoreConfig
}

func NewChatService(aiMgr TutorAI, retrieval *RetrievalService, chats ChatStore, cfg config.CoreConfig) *ChatService {
	return &ChatService{aiMgr: aiMgr, retrieval: retrieval, chats: chats, cfg: cfg}
}

// Chat answers one turn. includeHistory controls whether earlier turns
// of the session are folded into the prompt; the turn is persisted
// either way.
func (s *ChatService) Chat(ctx context.Context, message string, sessionID string, fileID string, includeHistory bool) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", appErr.ErrInvalid)
	}
	if sessionID == "" {
		sessionID = ids.NewSessionID()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", sessionID))

	var history []*model.ChatMessage
	if includeHistory {
		history = s.loadHistory(ctx, sessionID)
	}
	docContext, usedContext := s.buildContext(ctx, message, fileID)

	res, err := s.aiMgr.Chat(ctx, message, docContext, history)
	if err != nil {
		return nil, err
	}

	if s.chats != nil {
		msg := &model.ChatMessage{
			SessionID:   sessionID,
			UserMessage: message,
			AIResponse:  res.Text,
			Ctime:       time.Now().UnixMilli(),
		}
		if fileID != "" {
			msg.FileID = &fileID
		}
		if err := s.chats.Insert(ctx, msg); err != nil {
			// the answer is already produced; losing one history row is
			// not worth failing the turn
			logger.Warn("persist chat message failed", zap.Error(err))
		}
	}
	return &ChatResult{
		Reply:       res.Text,
		SessionID:   sessionID,
		Provider:    res.Provider,
		Mock:        res.Mock,
		UsedContext: usedContext,
	}, nil
}

// History returns the session's messages in chronological order.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	if s.chats == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	recent, err := s.chats.ListRecentBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return reverseMessages(recent), nil
}

func (s *ChatService) ClearSession(ctx context.Context, sessionID string) (int64, error) {
	if s.chats == nil {
		return 0, nil
	}
	return s.chats.DeleteBySession(ctx, sessionID)
}

func (s *ChatService) loadHistory(ctx context.Context, sessionID string) []*model.ChatMessage {
	if s.chats == nil {
		return nil
	}
	recent, err := s.chats.ListRecentBySession(ctx, sessionID, s.cfg.HistoryLimit)
	if err != nil {
		logutil.GetLogger(ctx).Warn("load chat history failed", zap.Error(err))
		return nil
	}
	return reverseMessages(recent)
}

// buildContext embeds the question and retrieves matching chunks from
// the given file. Any failure on this path degrades to no context.
func (s *ChatService) buildContext(ctx context.Context, message string, fileID string) (string, bool) {
	if fileID == "" || s.retrieval == nil {
		return "", false
	}
	logger := logutil.GetLogger(ctx).With(zap.String("file_id", fileID))
	queryVec, err := s.aiMgr.Embed(ctx, message, embedTaskQuery)
	if err != nil {
		logger.Warn("embed query failed, answering without context", zap.Error(err))
		return "", false
	}
	matches, err := s.retrieval.Search(ctx, queryVec, fileID, nil)
	if err != nil {
		logger.Warn("context retrieval failed, answering without context", zap.Error(err))
		return "", false
	}
	if len(matches) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n"), true
}

func reverseMessages(items []*model.ChatMessage) []*model.ChatMessage {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}
