package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillhunt/messaging-backend/internal/models"
)

func TestDemoSeedsConversations(t *testing.T) {
	assert := assert.New(t)
	d := NewDemo()

	snips, err := d.FetchConversations(context.Background(), UserMe)
	require.NoError(t, err)
	require.Len(t, snips, 2)

	for _, snip := range snips {
		assert.NotEmpty(snip.LastMessageText)
		assert.Contains([]string{UserOther1, UserOther2}, snip.OtherUserID)
		assert.NotEmpty(snip.OtherUserName)
	}
}

func TestDemoConversationIDSymmetry(t *testing.T) {
	d := NewDemo()
	assert.Equal(t, d.ConversationID(UserMe, UserOther1), d.ConversationID(UserOther1, UserMe))
	assert.Equal(t, "userMe-userOther1", d.ConversationID(UserOther1, UserMe))
}

func TestDemoSend(t *testing.T) {
	assert := assert.New(t)
	d := NewDemo()
	ctx := context.Background()

	t.Run("blank text rejected", func(t *testing.T) {
		_, err := d.Send(ctx, models.SendMessageRequest{
			ConversationID: d.ConversationID(UserMe, UserOther1),
			SenderID:       UserMe,
			ReceiverID:     UserOther1,
			Text:           "  ",
		})
		assert.ErrorIs(err, models.ErrValidation)
	})

	t.Run("send appends and resolves conversation", func(t *testing.T) {
		msg, err := d.Send(ctx, models.SendMessageRequest{
			SenderID:   UserMe,
			ReceiverID: UserOther1,
			Text:       "hello charlie",
		})
		require.NoError(t, err)
		assert.Equal(d.ConversationID(UserMe, UserOther1), msg.ConversationID)

		msgs, err := d.FetchMessages(ctx, msg.ConversationID)
		require.NoError(t, err)
		assert.Equal(msg.ID, msgs[len(msgs)-1].ID)
	})
}

func TestDemoMarkRead(t *testing.T) {
	assert := assert.New(t)
	d := NewDemo()
	ctx := context.Background()
	conv := d.ConversationID(UserMe, UserOther2)

	msgs, err := d.FetchMessages(ctx, conv)
	require.NoError(t, err)
	unreadForOther := 0
	for _, msg := range msgs {
		if msg.ReceiverID == UserOther2 && !msg.IsRead {
			unreadForOther++
		}
	}
	assert.Equal(unreadForOther, d.MarkRead(conv, UserOther2))
	assert.Equal(0, d.MarkRead(conv, UserOther2))
}
