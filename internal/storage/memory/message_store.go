package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillhunt/messaging-backend/internal/models"
)

type storedMessage struct {
	msg models.Message
	seq uint64 // insertion order, breaks timestamp ties
}

// MessageStore is an in-memory, append-only-per-conversation message store.
// It is the single source of truth for message content and read state.
type MessageStore struct {
	mu            sync.RWMutex
	conversations map[string][]*storedMessage // conversationID -> messages in insertion order
	byID          map[string]*storedMessage   // messageID -> message
	userIndex     map[string][]string         // userID -> []conversationID
	seq           uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		conversations: make(map[string][]*storedMessage),
		byID:          make(map[string]*storedMessage),
		userIndex:     make(map[string][]string),
		subs:          make(map[int]chan struct{}),
	}
}

// Append validates and stores a message, assigning an id and timestamp when
// absent, and returns the stored copy. Appends are atomic: a concurrent
// ListByConversation never observes a partially applied append.
func (s *MessageStore) Append(msg models.Message) (models.Message, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return models.Message{}, fmt.Errorf("%w: message text is blank", models.ErrValidation)
	}
	if msg.ConversationID == "" {
		return models.Message{}, fmt.Errorf("%w: conversation id is blank", models.ErrValidation)
	}
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return models.Message{}, fmt.Errorf("%w: sender and receiver ids are required", models.ErrValidation)
	}

	s.mu.Lock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.seq++
	sm := &storedMessage{msg: msg, seq: s.seq}
	s.conversations[msg.ConversationID] = append(s.conversations[msg.ConversationID], sm)
	s.byID[msg.ID] = sm
	s.indexUser(msg.SenderID, msg.ConversationID)
	s.indexUser(msg.ReceiverID, msg.ConversationID)
	s.mu.Unlock()

	s.notify()
	return msg, nil
}

// Ingest merges messages fetched from an authoritative source. Messages with
// a known id replace the stored copy, except that IsRead never regresses
// from true to false. Unknown messages are inserted. Subscribers are
// signalled only when the merge changed stored content, so re-ingesting an
// unchanged fetch is silent.
func (s *MessageStore) Ingest(msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}
	changed := false
	s.mu.Lock()
	for _, msg := range msgs {
		if msg.ID == "" || msg.ConversationID == "" {
			continue
		}
		if existing, ok := s.byID[msg.ID]; ok {
			updated := msg
			if existing.msg.IsRead {
				updated.IsRead = true
			}
			if updated != existing.msg {
				existing.msg = updated
				changed = true
			}
			continue
		}
		s.seq++
		sm := &storedMessage{msg: msg, seq: s.seq}
		s.conversations[msg.ConversationID] = append(s.conversations[msg.ConversationID], sm)
		s.byID[msg.ID] = sm
		s.indexUser(msg.SenderID, msg.ConversationID)
		s.indexUser(msg.ReceiverID, msg.ConversationID)
		changed = true
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// caller must hold s.mu
func (s *MessageStore) indexUser(userID, conversationID string) {
	if userID == "" {
		return
	}
	for _, id := range s.userIndex[userID] {
		if id == conversationID {
			return
		}
	}
	s.userIndex[userID] = append(s.userIndex[userID], conversationID)
}

// ListByConversation returns the conversation's messages ordered by
// timestamp ascending, ties broken by insertion order.
func (s *MessageStore) ListByConversation(conversationID string) []models.Message {
	s.mu.RLock()
	stored := s.conversations[conversationID]
	msgs := make([]*storedMessage, len(stored))
	copy(msgs, stored)
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].msg.Timestamp.Equal(msgs[j].msg.Timestamp) {
			return msgs[i].seq < msgs[j].seq
		}
		return msgs[i].msg.Timestamp.Before(msgs[j].msg.Timestamp)
	})
	out := make([]models.Message, len(msgs))
	for i, sm := range msgs {
		out[i] = sm.msg
	}
	return out
}

// All returns every stored message, ordered by timestamp ascending with
// insertion-order tie-break.
func (s *MessageStore) All() []models.Message {
	s.mu.RLock()
	msgs := make([]*storedMessage, 0, len(s.byID))
	for _, sm := range s.byID {
		msgs = append(msgs, sm)
	}
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].msg.Timestamp.Equal(msgs[j].msg.Timestamp) {
			return msgs[i].seq < msgs[j].seq
		}
		return msgs[i].msg.Timestamp.Before(msgs[j].msg.Timestamp)
	})
	out := make([]models.Message, len(msgs))
	for i, sm := range msgs {
		out[i] = sm.msg
	}
	return out
}

// ConversationsFor returns the ids of conversations the user participates in.
func (s *MessageStore) ConversationsFor(userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.userIndex[userID]))
	copy(ids, s.userIndex[userID])
	return ids
}

// MarkRead flips IsRead on every message in the conversation addressed to
// readerID. Idempotent. Returns the number of messages flipped.
func (s *MessageStore) MarkRead(conversationID, readerID string) int {
	s.mu.Lock()
	flipped := 0
	for _, sm := range s.conversations[conversationID] {
		if sm.msg.ReceiverID == readerID && !sm.msg.IsRead {
			sm.msg.IsRead = true
			flipped++
		}
	}
	s.mu.Unlock()

	if flipped > 0 {
		s.notify()
	}
	return flipped
}

// CountUnread reports how many messages in the conversation are addressed
// to readerID and still unread.
func (s *MessageStore) CountUnread(conversationID, readerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sm := range s.conversations[conversationID] {
		if sm.msg.ReceiverID == readerID && !sm.msg.IsRead {
			n++
		}
	}
	return n
}

// Subscribe returns a coalescing change signal and a cancel function.
// The channel receives at most one pending signal; dependents re-derive
// their views from current store content on each signal.
func (s *MessageStore) Subscribe() (<-chan struct{}, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *MessageStore) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
