package model

// Notifier delivers alert messages raised on defense state transitions.
type Notifier interface {
	Send(subject, body string) error
}
