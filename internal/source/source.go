// Package source defines the message-source collaborators the reconciler
// merges, and ships the self-seeding demo source.
package source

import (
	"context"

	"github.com/skillhunt/messaging-backend/internal/models"
)

// MessageSource is a message origin: the remote backend, the demo
// simulator, or anything with the same shape. Fetch failures are reported
// as models.ErrSourceUnavailable; the reconciler treats that as "source
// temporarily unavailable" and falls back to the remaining sources.
type MessageSource interface {
	FetchConversations(ctx context.Context, viewerID string) ([]models.ConversationSnippet, error)
	FetchMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	Send(ctx context.Context, req models.SendMessageRequest) (models.Message, error)
}
