package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/mbeoliero/kit/log"
)

// Notifier is the new-message side effect hook
type Notifier interface {
	NewMessage(senderName, preview string)
}

// SoundNotifier plays the desktop notification for an inbound message
type SoundNotifier struct{}

// NewMessage emits a system notification with a sound. Failures are logged
// and swallowed; a missed chime never breaks message handling.
func (SoundNotifier) NewMessage(senderName, preview string) {
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		log.Debug("message sound failed: %v", err)
	}
	if err := beeep.Notify(senderName, preview, ""); err != nil {
		log.Debug("message notification failed: %v", err)
	}
}

// NopNotifier silences notifications (tests, sound disabled in config)
type NopNotifier struct{}

func (NopNotifier) NewMessage(string, string) {}
