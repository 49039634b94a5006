package source

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillhunt/messaging-backend/internal/aggregate"
	"github.com/skillhunt/messaging-backend/internal/models"
	"github.com/skillhunt/messaging-backend/internal/storage/memory"
)

// Demo persona ids. UserMe stands in for the viewer while no real account
// is logged in.
const (
	UserMe     = "userMe"
	UserOther1 = "userOther1"
	UserOther2 = "userOther2"
)

// UserNames maps demo persona ids to display names.
var UserNames = map[string]string{
	UserMe:     "Me (Demo)",
	UserOther1: "Charlie Cooking (Demo)",
	UserOther2: "Bob the Builder (Demo)",
}

// Demo is a self-seeding, in-memory message source. It generates synthetic
// conversations for the demo personas and, once StartSimulation is called,
// periodically injects synthetic incoming messages.
type Demo struct {
	store *memory.MessageStore

	mu      sync.Mutex
	started bool
}

func NewDemo() *Demo {
	d := &Demo{store: memory.NewMessageStore()}
	d.seed()
	return d
}

// IsDemoUser reports whether the id belongs to a demo persona.
func (d *Demo) IsDemoUser(id string) bool {
	_, ok := UserNames[id]
	return ok
}

// ConversationID is the demo source's own id scheme, kept distinct from the
// real resolver but equally stable: sorted pair joined with "-".
func (d *Demo) ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "-" + b
}

func (d *Demo) seed() {
	now := time.Now()
	conv1 := d.ConversationID(UserMe, UserOther1)
	conv2 := d.ConversationID(UserMe, UserOther2)

	seedMsgs := []models.Message{
		{ConversationID: conv2, SenderID: UserOther2, ReceiverID: UserMe, Text: "Hey, what's up?", Timestamp: now.Add(-100 * time.Minute), IsRead: true},
		{ConversationID: conv2, SenderID: UserMe, ReceiverID: UserOther2, Text: "Not much, Bob. Just coding...", Timestamp: now.Add(-92 * time.Minute)},
		{ConversationID: conv1, SenderID: UserMe, ReceiverID: UserOther1, Text: "Hello Charlie, what are you cooking!", Timestamp: now.Add(-83 * time.Minute), IsRead: true},
		{ConversationID: conv1, SenderID: UserOther1, ReceiverID: UserMe, Text: "Hi there!", Timestamp: now.Add(-67 * time.Minute), IsRead: true},
		{ConversationID: conv1, SenderID: UserMe, ReceiverID: UserOther1, Text: "How are you doing?", Timestamp: now.Add(-50 * time.Minute)},
	}
	for _, msg := range seedMsgs {
		msg.SenderName = UserNames[msg.SenderID]
		if _, err := d.store.Append(msg); err != nil {
			log.Printf("[DEMO] seeding message: %v", err)
		}
	}
}

// StartSimulation launches the timers that inject synthetic incoming
// messages for the demo viewer. Calling it again is a no-op. The simulation
// stops when ctx is cancelled.
func (d *Demo) StartSimulation(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go d.simulate(ctx)
}

var simulatedLines = []string{
	"Are you there? It's been a while!",
	"Just checking in. Saw your coding message.",
	"Got a minute to catch up?",
	"You won't believe what happened today.",
}

func (d *Demo) simulate(ctx context.Context) {
	senders := []string{UserOther1, UserOther2}
	delays := []time.Duration{15 * time.Second, 10 * time.Second}
	i := 0
	for {
		delay := 45 * time.Second
		if i < len(delays) {
			delay = delays[i]
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		sender := senders[i%len(senders)]
		msg := models.Message{
			ID:             uuid.NewString(),
			ConversationID: d.ConversationID(UserMe, sender),
			SenderID:       sender,
			ReceiverID:     UserMe,
			Text:           simulatedLines[i%len(simulatedLines)],
			SenderName:     UserNames[sender],
			Timestamp:      time.Now(),
		}
		if _, err := d.store.Append(msg); err != nil {
			log.Printf("[DEMO] injecting simulated message: %v", err)
		}
		i++
	}
}

// FetchConversations implements MessageSource.
func (d *Demo) FetchConversations(ctx context.Context, viewerID string) ([]models.ConversationSnippet, error) {
	return aggregate.Snippets(d.store.All(), viewerID, func(id string) string {
		if name, ok := UserNames[id]; ok {
			return name
		}
		return "Unknown Demo User"
	}), nil
}

// FetchMessages implements MessageSource.
func (d *Demo) FetchMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	return d.store.ListByConversation(conversationID), nil
}

// Send implements MessageSource, with simulated network latency.
func (d *Demo) Send(ctx context.Context, req models.SendMessageRequest) (models.Message, error) {
	select {
	case <-ctx.Done():
		return models.Message{}, ctx.Err()
	case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
	}

	if strings.TrimSpace(req.Text) == "" {
		return models.Message{}, fmt.Errorf("%w: message text is blank", models.ErrValidation)
	}
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = d.ConversationID(req.SenderID, req.ReceiverID)
	}
	return d.store.Append(models.Message{
		ConversationID: conversationID,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		Text:           req.Text,
		SenderName:     UserNames[req.SenderID],
	})
}

// MarkRead flips read state for demo messages addressed to the reader.
func (d *Demo) MarkRead(conversationID, readerID string) int {
	return d.store.MarkRead(conversationID, readerID)
}

// Subscribe exposes the demo store's change signal, so the reconciler can
// react to simulated incoming messages.
func (d *Demo) Subscribe() (<-chan struct{}, func()) {
	return d.store.Subscribe()
}
