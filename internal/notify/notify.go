// Package notify defines the external collaborators the router calls
// for user-facing notifications: a presenter and an opaque decrypt
// capability for end-to-end encrypted previews.
package notify

import "github.com/888MAXiM/meetzy-frontend-sub001/internal/model"

// Notifier presents a notification. Implementations are external; the
// engine only decides when to ask.
type Notifier interface {
	Notify(key model.ConversationKey, title, body string)
}

// Decrypter turns ciphertext into a readable preview. A slow decrypt
// delays only its own notification, never event processing.
type Decrypter func(ciphertext string) (string, error)

// Func adapts a plain function to Notifier.
type Func func(key model.ConversationKey, title, body string)

func (f Func) Notify(key model.ConversationKey, title, body string) { f(key, title, body) }
