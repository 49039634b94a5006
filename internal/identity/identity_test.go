package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationID(t *testing.T) {
	assert := assert.New(t)

	t.Run("symmetry", func(t *testing.T) {
		pairs := [][2]string{
			{"u1", "u2"},
			{"alice", "bob"},
			{"zed", "aaron"},
			{"userMe", "userOther1"},
		}
		for _, pair := range pairs {
			assert.Equal(ConversationID(pair[0], pair[1]), ConversationID(pair[1], pair[0]))
		}
	})

	t.Run("stable value", func(t *testing.T) {
		assert.Equal("u1~u2", ConversationID("u1", "u2"))
		assert.Equal("u1~u2", ConversationID("u2", "u1"))
	})

	t.Run("self conversation", func(t *testing.T) {
		assert.Equal("u1~u1", ConversationID("u1", "u1"))
	})
}
