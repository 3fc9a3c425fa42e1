package vanish

import (
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Notifier receives human-readable progress strings for a job's channel.
// Rendering them into UI messages is the caller's concern; the engine only
// emits plain text.
type Notifier interface {
	Publish(channelID, content string)
}

// NopNotifier discards all updates.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(channelID, content string) {}

// messageSender is the slice of discordgo.Session the status notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// StatusNotifier renders progress updates as a single status message per
// channel, edited in place so long jobs don't flood the channel.
type StatusNotifier struct {
	session messageSender
	mu      sync.Mutex
	msgIDs  map[string]string // channel id -> status message id
}

// NewStatusNotifier creates a notifier posting through the given session.
func NewStatusNotifier(session messageSender) *StatusNotifier {
	return &StatusNotifier{session: session, msgIDs: make(map[string]string)}
}

// Publish implements Notifier. If the channel's status message was deleted
// out from under us, a fresh one is sent.
func (n *StatusNotifier) Publish(channelID, content string) {
	n.mu.Lock()
	msgID, ok := n.msgIDs[channelID]
	n.mu.Unlock()

	if ok {
		if _, err := n.session.ChannelMessageEdit(channelID, msgID, content); err == nil {
			return
		}
	}

	msg, err := n.session.ChannelMessageSend(channelID, content)
	if err != nil {
		log.Printf("[vanish] failed to send status message to channel %s: %v", channelID, err)
		return
	}
	n.mu.Lock()
	n.msgIDs[channelID] = msg.ID
	n.mu.Unlock()
}
