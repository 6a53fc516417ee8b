package notification

import "context"

// Dispatcher delivers notifications to their targets. Delivery transport
// (email, push, in-app) is an infrastructure concern behind this
// boundary; the core only produces the messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *Notification) error
}
