// Package aggregate projects conversation snippets and unread counts from
// message lists. Everything here is a pure function over its inputs; state
// lives in the message store.
package aggregate

import (
	"sort"

	"github.com/skillhunt/messaging-backend/internal/models"
)

// NameResolver maps a participant id to a display name. It must be cheap:
// snippet projection is CPU-bound and runs on every store change.
type NameResolver func(participantID string) string

// Snippets derives one ConversationSnippet per conversation the viewer is a
// party to, sorted by last-message timestamp descending. Messages must be in
// store order (timestamp ascending, insertion-order ties), so the last
// element of each group is the conversation's most recent message.
//
// When a conversation's messages name more than two distinct participants,
// the "other user" is taken from the most recent message only; the
// inconsistency itself is a reconciliation problem, not an aggregation one.
func Snippets(msgs []models.Message, viewerID string, nameFor NameResolver) []models.ConversationSnippet {
	groups := make(map[string][]models.Message)
	order := make([]string, 0)
	for _, msg := range msgs {
		if _, seen := groups[msg.ConversationID]; !seen {
			order = append(order, msg.ConversationID)
		}
		groups[msg.ConversationID] = append(groups[msg.ConversationID], msg)
	}

	snippets := make([]models.ConversationSnippet, 0, len(groups))
	for _, conversationID := range order {
		group := groups[conversationID]
		last := group[len(group)-1]

		var otherID string
		switch viewerID {
		case last.SenderID:
			otherID = last.ReceiverID
		case last.ReceiverID:
			otherID = last.SenderID
		default:
			// viewer is not a party to this conversation
			continue
		}

		unread := 0
		for _, msg := range group {
			if msg.ReceiverID == viewerID && !msg.IsRead {
				unread++
			}
		}

		otherName := otherID
		if nameFor != nil {
			if name := nameFor(otherID); name != "" {
				otherName = name
			}
		}

		snippets = append(snippets, models.ConversationSnippet{
			ConversationID:       conversationID,
			OtherUserID:          otherID,
			OtherUserName:        otherName,
			LastMessageText:      last.Text,
			LastMessageTimestamp: last.Timestamp,
			UnreadCount:          unread,
		})
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		if snippets[i].LastMessageTimestamp.Equal(snippets[j].LastMessageTimestamp) {
			return snippets[i].ConversationID < snippets[j].ConversationID
		}
		return snippets[i].LastMessageTimestamp.After(snippets[j].LastMessageTimestamp)
	})
	return snippets
}

// UnreadCount counts messages addressed to the viewer that are still unread.
func UnreadCount(msgs []models.Message, viewerID string) int {
	n := 0
	for _, msg := range msgs {
		if msg.ReceiverID == viewerID && !msg.IsRead {
			n++
		}
	}
	return n
}
