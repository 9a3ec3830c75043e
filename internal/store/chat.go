package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kinhtot/marketplace/internal/models"
)

// RecordChatExchange persists one stylist question/answer pair into
// the user's most recent chat session, creating a session when the
// user has none. Suggestions are stored as a JSON document alongside
// the AI message for later replay in the frontend.
func RecordChatExchange(ctx context.Context, db *sql.DB, userID int64, question, answer string, suggestions any) error {
	var sessionID int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM chat_sessions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID).Scan(&sessionID)
	if err == sql.ErrNoRows {
		err = db.QueryRowContext(ctx,
			`INSERT INTO chat_sessions (user_id, title, created_at) VALUES ($1, $2, NOW()) RETURNING id`,
			userID, "AI Stylist").Scan(&sessionID)
	}
	if err != nil {
		return fmt.Errorf("resolve chat session: %w", err)
	}

	suggestionsJSON, err := json.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, product_suggestions, created_at)
		 VALUES ($1, $2, $3, NULL, NOW()),
		        ($1, $4, $5, $6, NOW())`,
		sessionID, models.ChatRoleUser, question,
		models.ChatRoleAI, answer, string(suggestionsJSON))
	if err != nil {
		return fmt.Errorf("record chat messages: %w", err)
	}
	return nil
}
