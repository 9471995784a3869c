package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a pin's append-only channel. Messages are immutable
// and never individually deleted; the whole channel goes away with its pin.
type Message struct {
	ID        string `json:"id"`
	PinID     string `json:"pin_id"`
	SenderID  string `json:"sender_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// newPushKey builds a time-ordered unique id: zero-padded epoch millis plus a
// uuid suffix, so lexicographic key order approximates send order.
func newPushKey(now time.Time) string {
	return fmt.Sprintf("%013d-%s", now.UnixMilli(), uuid.NewString())
}
