// Package notifier pushes trade notifications to an external channel.
// Delivery failures are logged and never affect the decision loop.
package notifier

type Notifier interface {
	SendText(text string) error
}

// Noop drops every message; used when no channel is configured.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
