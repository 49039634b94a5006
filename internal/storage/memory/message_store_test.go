package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillhunt/messaging-backend/internal/models"
)

func mustAppend(t *testing.T, s *MessageStore, msg models.Message) models.Message {
	t.Helper()
	stored, err := s.Append(msg)
	require.NoError(t, err)
	return stored
}

func TestAppendValidation(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	_, err := s.Append(models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "   "})
	assert.ErrorIs(err, models.ErrValidation)

	_, err = s.Append(models.Message{SenderID: "a", ReceiverID: "b", Text: "hi"})
	assert.ErrorIs(err, models.ErrValidation)

	_, err = s.Append(models.Message{ConversationID: "c", Text: "hi"})
	assert.ErrorIs(err, models.ErrValidation)

	assert.Empty(s.All())
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	stored := mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "  hi there  "})
	assert.NotEmpty(stored.ID)
	assert.False(stored.Timestamp.IsZero())
	assert.Equal("hi there", stored.Text)
}

func TestListByConversationOrdering(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()
	base := time.Now()

	// appended out of order: t3, t1, t2
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "third", Timestamp: base.Add(3 * time.Second)})
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "b", ReceiverID: "a", Text: "first", Timestamp: base.Add(1 * time.Second)})
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "second", Timestamp: base.Add(2 * time.Second)})

	msgs := s.ListByConversation("c")
	require.Len(t, msgs, 3)
	assert.Equal("first", msgs[0].Text)
	assert.Equal("second", msgs[1].Text)
	assert.Equal("third", msgs[2].Text)

	// stable across repeated calls
	assert.Equal(msgs, s.ListByConversation("c"))
}

func TestListByConversationTiesByInsertionOrder(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()
	ts := time.Now()

	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "one", Timestamp: ts})
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "two", Timestamp: ts})

	msgs := s.ListByConversation("c")
	assert.Equal("one", msgs[0].Text)
	assert.Equal("two", msgs[1].Text)
}

func TestMarkReadIdempotent(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "hi"})
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "again"})
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "b", ReceiverID: "a", Text: "reply"})

	assert.Equal(2, s.CountUnread("c", "b"))
	assert.Equal(2, s.MarkRead("c", "b"))
	assert.Equal(0, s.CountUnread("c", "b"))
	assert.Equal(0, s.MarkRead("c", "b"))
	assert.Equal(0, s.CountUnread("c", "b"))

	// a's unread untouched
	assert.Equal(1, s.CountUnread("c", "a"))
}

func TestUnreadConservation(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	before := s.CountUnread("c", "r")
	otherBefore := s.CountUnread("c", "other")
	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "other", ReceiverID: "r", Text: "ping"})
	assert.Equal(before+1, s.CountUnread("c", "r"))
	assert.Equal(otherBefore, s.CountUnread("c", "other"))
}

func TestIngestDeduplicates(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	mustAppend(t, s, models.Message{ID: "m1", ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "local copy"})
	s.MarkRead("c", "b")

	s.Ingest([]models.Message{
		{ID: "m1", ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "server copy", IsRead: false},
		{ID: "m2", ConversationID: "c", SenderID: "b", ReceiverID: "a", Text: "new from server"},
	})

	msgs := s.ListByConversation("c")
	assert.Len(msgs, 2)
	for _, msg := range msgs {
		if msg.ID == "m1" {
			assert.Equal("server copy", msg.Text)
			assert.True(msg.IsRead, "read state must not regress")
		}
	}
}

func TestIngestUnchangedIsSilent(t *testing.T) {
	s := NewMessageStore()
	batch := []models.Message{
		{ID: "m1", ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "hello", Timestamp: time.UnixMilli(1000)},
	}
	s.Ingest(batch)

	ch, cancel := s.Subscribe()
	defer cancel()

	// same content again: no signal, so a subscriber re-fetching on every
	// signal cannot loop on its own ingest
	s.Ingest(batch)
	select {
	case <-ch:
		t.Fatal("unchanged ingest must not signal subscribers")
	case <-time.After(50 * time.Millisecond):
	}

	s.Ingest([]models.Message{
		{ID: "m2", ConversationID: "c", SenderID: "b", ReceiverID: "a", Text: "new", Timestamp: time.UnixMilli(2000)},
	})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after a new message")
	}
}

func TestUserIndex(t *testing.T) {
	assert := assert.New(t)
	s := NewMessageStore()

	mustAppend(t, s, models.Message{ConversationID: "c1", SenderID: "a", ReceiverID: "b", Text: "x"})
	mustAppend(t, s, models.Message{ConversationID: "c1", SenderID: "b", ReceiverID: "a", Text: "y"})
	mustAppend(t, s, models.Message{ConversationID: "c2", SenderID: "a", ReceiverID: "z", Text: "z"})

	assert.ElementsMatch([]string{"c1", "c2"}, s.ConversationsFor("a"))
	assert.Equal([]string{"c1"}, s.ConversationsFor("b"))
	assert.Empty(s.ConversationsFor("nobody"))
}

func TestSubscribeSignalsOnChange(t *testing.T) {
	s := NewMessageStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	mustAppend(t, s, models.Message{ConversationID: "c", SenderID: "a", ReceiverID: "b", Text: "x"})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after append")
	}
}

func TestConcurrentAppends(t *testing.T) {
	s := NewMessageStore()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg, err := s.Append(models.Message{
				ConversationID: "c",
				SenderID:       "a",
				ReceiverID:     "b",
				Text:           fmt.Sprintf("message %d", i),
			})
			if err != nil {
				t.Error(err)
				return
			}
			ids <- msg.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate message id %s", id)
		}
		seen[id] = true
	}
	if got := len(s.ListByConversation("c")); got != n {
		t.Fatalf("expected %d messages, got %d", n, got)
	}
}
