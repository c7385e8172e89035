// Package notify carries user-facing signals out of the pipeline: toast-style
// notifications and the post-submit navigation request. Both sinks are
// fire-and-forget; no return value is consumed by callers.
package notify

import (
	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// Notifier is the notification sink the form controller and the upload
// coordinator report through.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator is invoked once on successful submission.
type Navigator interface {
	NavigateTo(path string)
}

// Bus topics. Subscribers receive a single string argument.
const (
	TopicSuccess  = "notify:success"
	TopicError    = "notify:error"
	TopicNavigate = "notify:navigate"
)

// Bus fans notifications out over an in-process event bus so the hosting
// view layer can subscribe without the pipeline knowing about it.
type Bus struct {
	bus EventBus.Bus
}

var (
	_ Notifier  = (*Bus)(nil)
	_ Navigator = (*Bus)(nil)
)

func NewBus() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) Success(message string) {
	zap.L().Info("notify", zap.String("kind", "success"), zap.String("message", message))
	b.bus.Publish(TopicSuccess, message)
}

func (b *Bus) Error(message string) {
	zap.L().Warn("notify", zap.String("kind", "error"), zap.String("message", message))
	b.bus.Publish(TopicError, message)
}

func (b *Bus) NavigateTo(path string) {
	zap.L().Info("navigate", zap.String("path", path))
	b.bus.Publish(TopicNavigate, path)
}

// OnSuccess registers a handler for success notifications.
func (b *Bus) OnSuccess(fn func(message string)) error {
	return b.bus.Subscribe(TopicSuccess, fn)
}

// OnError registers a handler for error notifications.
func (b *Bus) OnError(fn func(message string)) error {
	return b.bus.Subscribe(TopicError, fn)
}

// OnNavigate registers a handler for navigation requests.
func (b *Bus) OnNavigate(fn func(path string)) error {
	return b.bus.Subscribe(TopicNavigate, fn)
}
