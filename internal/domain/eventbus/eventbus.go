// Package eventbus decouples the credential flows from their fire-and-forget
// side effects. The bus is injected where needed instead of held in a package
// global.
package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus is the event bus contract used across the domain.
type Bus = evbus.Bus

// New creates an event bus.
func New() Bus {
	return evbus.New()
}
