package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/studyforge/studyforge/internal/model"
	"github.com/studyforge/studyforge/internal/pkg/dbutil"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

const chatTable = "chat_messages"

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Insert(ctx context.Context, msg *model.ChatMessage) error {
	const query = `
		INSERT INTO chat_messages (session_id, user_message, ai_response, file_id, ctime)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var fileID sql.NullString
	if msg.FileID != nil {
		fileID = sql.NullString{String: *msg.FileID, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, query, msg.SessionID, msg.UserMessage, msg.AIResponse, fileID, msg.Ctime)
	if err := row.Scan(&msg.ID); err != nil {
		return fmt.Errorf("%w: insert chat message: %v", appErr.ErrStore, err)
	}
	return nil
}

// ListRecentBySession returns the newest messages first; callers reverse
// the slice when they need chronological order.
func (r *ChatRepo) ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
		"_orderby":   "ctime desc",
		"_limit":     []uint{0, uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect(chatTable, where, []string{"id", "session_id", "user_message", "ai_response", "file_id", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list chat messages: %v", appErr.ErrStore, err)
	}
	defer rows.Close()
	var results []*model.ChatMessage
	for rows.Next() {
		var item model.ChatMessage
		var fileID sql.NullString
		if err := rows.Scan(&item.ID, &item.SessionID, &item.UserMessage, &item.AIResponse, &fileID, &item.Ctime); err != nil {
			return nil, fmt.Errorf("%w: scan chat message: %v", appErr.ErrStore, err)
		}
		if fileID.Valid {
			item.FileID = &fileID.String
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

func (r *ChatRepo) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	where := map[string]interface{}{
		"session_id": sessionID,
	}
	sqlStr, args, err := builder.BuildDelete(chatTable, where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete chat messages: %v", appErr.ErrStore, err)
	}
	return res.RowsAffected()
}
