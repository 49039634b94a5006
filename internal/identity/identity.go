// Package identity derives canonical conversation identifiers.
package identity

// Separator joins the two participant ids. It is not expected to appear
// inside an id.
const Separator = "~"

// ConversationID returns the canonical id for a two-party conversation.
// The result is order-independent: ConversationID(a, b) == ConversationID(b, a).
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}
