package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/skillhunt/messaging-backend/internal/models"
)

// ConversationSnippets returns a stream that emits the complete reconciled
// snippet list whenever any underlying source changes, starting with the
// current state. Emissions coalesce: a slow consumer sees the latest list,
// not every intermediate one. The cancel function stops delivery for this
// subscriber only.
func (r *Reconciler) ConversationSnippets(ctx context.Context, viewerID string) (<-chan []models.ConversationSnippet, func()) {
	out := make(chan []models.ConversationSnippet, 1)
	streamCtx, cancel := context.WithCancel(ctx)

	go runStream(streamCtx, r, out, func() bool {
		snippets, err := r.SnippetsSnapshot(streamCtx, viewerID)
		if err != nil {
			log.Printf("[RECONCILE] snippet stream for %s: %v", viewerID, err)
			return false
		}
		// drop the stale pending emission, if any
		select {
		case <-out:
		default:
		}
		out <- snippets
		return true
	})
	return out, cancel
}

// MessagesFor returns a stream of the conversation's reconciled message
// list, with the same emission and cancellation semantics as
// ConversationSnippets.
func (r *Reconciler) MessagesFor(ctx context.Context, conversationID string) (<-chan []models.Message, func()) {
	out := make(chan []models.Message, 1)
	streamCtx, cancel := context.WithCancel(ctx)

	go runStream(streamCtx, r, out, func() bool {
		msgs, err := r.MessagesSnapshot(streamCtx, conversationID)
		if err != nil {
			log.Printf("[RECONCILE] message stream for %s: %v", conversationID, err)
			return false
		}
		select {
		case <-out:
		default:
		}
		out <- msgs
		return true
	})
	return out, cancel
}

// runStream drives one subscriber: emit once up front, then re-emit on
// store changes, demo changes, local sends, and periodic remote refresh.
func runStream[T any](ctx context.Context, r *Reconciler, out chan T, emit func() bool) {
	storeCh, unsubStore := r.store.Subscribe()
	defer unsubStore()

	var demoCh <-chan struct{}
	if r.demo != nil {
		var unsubDemo func()
		demoCh, unsubDemo = r.demo.Subscribe()
		defer unsubDemo()
	}

	notifCh, unsubNotif := r.notifier.Subscribe()
	defer unsubNotif()

	var tickerCh <-chan time.Time
	if r.remote != nil {
		ticker := time.NewTicker(r.refresh)
		defer ticker.Stop()
		tickerCh = ticker.C
	}

	defer close(out)

	emit()
	for {
		select {
		case <-ctx.Done():
			return
		case <-storeCh:
			emit()
		case <-demoCh:
			emit()
		case _, ok := <-notifCh:
			if !ok {
				notifCh = nil
				continue
			}
			emit()
		case <-tickerCh:
			emit()
		}
	}
}
