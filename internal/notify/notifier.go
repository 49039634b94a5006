// Package notify announces messages the current device just sent, before
// and independent of server confirmation.
package notify

import (
	"sync"

	"github.com/skillhunt/messaging-backend/internal/models"
)

// subscriber channels buffer this many undelivered messages before the
// notifier starts dropping for that subscriber.
const subscriberBuffer = 64

// Notifier is a fire-and-forget broadcast of locally sent messages. It holds
// no message state: events published with no subscribers are dropped, since
// confirmed messages are already visible through the message store.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[int]chan models.Message
	nextID int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan models.Message)}
}

// Publish delivers the message to every current subscriber without blocking.
// A subscriber that has fallen subscriberBuffer messages behind misses this one.
func (n *Notifier) Publish(msg models.Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel along with a
// cancel function. Cancelling stops delivery and closes the channel; other
// subscribers are unaffected.
func (n *Notifier) Subscribe() (<-chan models.Message, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	ch := make(chan models.Message, subscriberBuffer)
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}
}
