// Package notify delivers short customer and provider messages (SMS-style)
// without ever blocking or failing a booking operation.
package notify

import "context"

type Notifier interface {
	Send(ctx context.Context, to, message string) error
}
