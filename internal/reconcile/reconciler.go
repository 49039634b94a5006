// Package reconcile merges the demo source, the authoritative remote
// source, and locally sent messages into one consistent per-viewer view.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/skillhunt/messaging-backend/internal/aggregate"
	"github.com/skillhunt/messaging-backend/internal/directory"
	"github.com/skillhunt/messaging-backend/internal/identity"
	"github.com/skillhunt/messaging-backend/internal/models"
	"github.com/skillhunt/messaging-backend/internal/notify"
	"github.com/skillhunt/messaging-backend/internal/session"
	"github.com/skillhunt/messaging-backend/internal/source"
	"github.com/skillhunt/messaging-backend/internal/storage/memory"
)

const defaultRemoteRefresh = 30 * time.Second

// Reconciler is the single entry point the UI layer consumes. It owns the
// routing between sources on send and the merge on read.
type Reconciler struct {
	store    *memory.MessageStore
	demo     *source.Demo
	remote   source.MessageSource
	notifier *notify.Notifier
	session  session.Context
	dir      directory.Directory
	refresh  time.Duration
}

type Option func(*Reconciler)

// WithRemote attaches the authoritative remote source.
func WithRemote(remote source.MessageSource) Option {
	return func(r *Reconciler) { r.remote = remote }
}

// WithRemoteRefresh sets how often observable streams re-poll the remote
// source.
func WithRemoteRefresh(interval time.Duration) Option {
	return func(r *Reconciler) { r.refresh = interval }
}

func New(store *memory.MessageStore, demo *source.Demo, notifier *notify.Notifier, sess session.Context, dir directory.Directory, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		demo:     demo,
		notifier: notifier,
		session:  sess,
		dir:      dir,
		refresh:  defaultRemoteRefresh,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) nameFor(ctx context.Context) aggregate.NameResolver {
	return func(participantID string) string {
		if r.dir == nil {
			return ""
		}
		name, _ := r.dir.DisplayNameFor(ctx, participantID)
		return name
	}
}

// SnippetsSnapshot computes the reconciled conversation list for the viewer
// from current source content. A remote failure falls back to the remaining
// sources; the error propagates only when every source failed.
func (r *Reconciler) SnippetsSnapshot(ctx context.Context, viewerID string) ([]models.ConversationSnippet, error) {
	merged := make(map[string]models.ConversationSnippet)

	available := 0
	var lastErr error

	if r.demo != nil {
		demoSnips, err := r.demo.FetchConversations(ctx, viewerID)
		if err != nil {
			lastErr = err
		} else {
			available++
			for _, s := range demoSnips {
				merged[s.ConversationID] = s
			}
		}
	}

	if r.remote != nil {
		remoteSnips, err := r.remote.FetchConversations(ctx, viewerID)
		if err != nil {
			log.Printf("[RECONCILE] remote conversations unavailable, falling back: %v", err)
			lastErr = err
		} else {
			available++
			// authoritative: remote wins over demo on the same conversation id
			for _, s := range remoteSnips {
				merged[s.ConversationID] = s
			}
		}
	}

	// the local store never fails: a just-sent message must surface even
	// when the conversation is unknown to every other source, and must win
	// when it is newer than what the sources report
	localSnips := aggregate.Snippets(r.store.All(), viewerID, r.nameFor(ctx))
	for _, s := range localSnips {
		existing, known := merged[s.ConversationID]
		if !known || s.LastMessageTimestamp.After(existing.LastMessageTimestamp) {
			merged[s.ConversationID] = s
		}
	}

	if available == 0 && lastErr != nil && len(localSnips) == 0 {
		return nil, fmt.Errorf("all message sources failed: %w", lastErr)
	}

	out := make([]models.ConversationSnippet, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastMessageTimestamp.Equal(out[j].LastMessageTimestamp) {
			return out[i].ConversationID < out[j].ConversationID
		}
		return out[i].LastMessageTimestamp.After(out[j].LastMessageTimestamp)
	})
	return out, nil
}

// MessagesSnapshot computes the reconciled message list for one
// conversation, de-duplicated by message id. Remote fetch results are
// ingested into the store first, so the remote copy wins on an id
// collision, a message already read never flips back to unread, and later
// read marking sticks for remote-originated messages too.
func (r *Reconciler) MessagesSnapshot(ctx context.Context, conversationID string) ([]models.Message, error) {
	r.ingestRemote(ctx, conversationID)

	byID := make(map[string]int)
	var merged []models.Message

	add := func(msgs []models.Message, authoritative bool) {
		for _, msg := range msgs {
			idx, seen := byID[msg.ID]
			if !seen {
				byID[msg.ID] = len(merged)
				merged = append(merged, msg)
				continue
			}
			if authoritative {
				wasRead := merged[idx].IsRead
				merged[idx] = msg
				if wasRead {
					merged[idx].IsRead = true
				}
			}
		}
	}

	if r.demo != nil {
		demoMsgs, err := r.demo.FetchMessages(ctx, conversationID)
		if err == nil {
			add(demoMsgs, false)
		}
	}
	add(r.store.ListByConversation(conversationID), true)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged, nil
}

// Send routes a message to the demo source when either participant is a
// demo persona; otherwise it validates attribution against the session,
// appends to the message store, publishes on the local-send notifier, and
// forwards to the remote source in the background. Returns the new message
// id.
func (r *Reconciler) Send(ctx context.Context, conversationID, senderID, receiverID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: message text is blank", models.ErrValidation)
	}
	if senderID == "" || receiverID == "" {
		return "", fmt.Errorf("%w: sender and receiver ids are required", models.ErrValidation)
	}

	req := models.SendMessageRequest{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
	}

	if r.demo != nil && (r.demo.IsDemoUser(senderID) || r.demo.IsDemoUser(receiverID)) {
		msg, err := r.demo.Send(ctx, req)
		if err != nil {
			return "", err
		}
		return msg.ID, nil
	}

	viewerID, loggedIn := r.session.CurrentViewerID(ctx)
	if !loggedIn {
		return "", fmt.Errorf("%w: cannot send as %q without a logged-in user or a demo identity", models.ErrUnauthorized, senderID)
	}
	if senderID != viewerID {
		return "", fmt.Errorf("%w: sender %q does not match logged-in user %q and is not a demo identity", models.ErrUnauthorized, senderID, viewerID)
	}

	if req.ConversationID == "" {
		req.ConversationID = identity.ConversationID(senderID, receiverID)
	}

	senderName := ""
	if r.dir != nil {
		senderName, _ = r.dir.DisplayNameFor(ctx, senderID)
	}

	msg, err := r.store.Append(models.Message{
		ConversationID: req.ConversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		SenderName:     senderName,
	})
	if err != nil {
		return "", err
	}

	r.notifier.Publish(msg)

	if r.remote != nil {
		go r.forwardToRemote(msg, req)
	}
	return msg.ID, nil
}

// forwardToRemote pushes a locally appended message to the backend. The
// local copy already carries the final id, so the server echo de-duplicates
// on the next fetch; a failure here only delays remote visibility.
func (r *Reconciler) forwardToRemote(msg models.Message, req models.SendMessageRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	if withID, ok := r.remote.(interface {
		SendWithID(ctx context.Context, messageID string, req models.SendMessageRequest) (models.Message, error)
	}); ok {
		_, err = withID.SendWithID(ctx, msg.ID, req)
	} else {
		_, err = r.remote.Send(ctx, req)
	}
	if err != nil {
		log.Printf("[RECONCILE] forwarding message %s to remote: %v", msg.ID, err)
	}
}

// GetOrCreateConversationID resolves the canonical conversation id for the
// pair, delegating to the demo source's scheme when a demo persona is
// involved. Stable and idempotent for repeated calls with the same pair.
func (r *Reconciler) GetOrCreateConversationID(participantA, participantB string) (string, error) {
	if participantA == "" || participantB == "" {
		return "", fmt.Errorf("%w: participant ids are required", models.ErrValidation)
	}
	if r.demo != nil && (r.demo.IsDemoUser(participantA) || r.demo.IsDemoUser(participantB)) {
		return r.demo.ConversationID(participantA, participantB), nil
	}
	return identity.ConversationID(participantA, participantB), nil
}

// MarkRead flips read state for every message in the conversation addressed
// to the reader, across the store and the demo source. Remote messages are
// ingested into the store first so the flip covers them. Idempotent. Fails
// with models.ErrNotFound when no source knows the conversation.
func (r *Reconciler) MarkRead(ctx context.Context, conversationID, readerID string) error {
	r.ingestRemote(ctx, conversationID)

	known := len(r.store.ListByConversation(conversationID)) > 0
	r.store.MarkRead(conversationID, readerID)

	if r.demo != nil {
		if demoMsgs, err := r.demo.FetchMessages(ctx, conversationID); err == nil && len(demoMsgs) > 0 {
			known = true
			r.demo.MarkRead(conversationID, readerID)
		}
	}
	if !known {
		return fmt.Errorf("%w: conversation %q", models.ErrNotFound, conversationID)
	}
	return nil
}

// ingestRemote pulls the conversation's remote copy into the store, where
// id-keyed merging keeps read state from regressing. A remote failure is a
// fallback to current store content, not an error.
func (r *Reconciler) ingestRemote(ctx context.Context, conversationID string) {
	if r.remote == nil {
		return
	}
	remoteMsgs, err := r.remote.FetchMessages(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("[RECONCILE] remote messages unavailable, falling back: %v", err)
		}
		return
	}
	r.store.Ingest(remoteMsgs)
}

// UnreadCountFor reports the viewer's unread count for one conversation in
// the reconciled view.
func (r *Reconciler) UnreadCountFor(ctx context.Context, viewerID, conversationID string) (int, error) {
	msgs, err := r.MessagesSnapshot(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	return aggregate.UnreadCount(msgs, viewerID), nil
}
