package gateway

import (
	"fmt"

	"muse/pkg/api"
	"muse/pkg/monitor"
)

// Builder provides a fluent builder pattern interface for constructing and
// initializing a Manager with all its necessary dependencies.
//
// All components (channels, command handler) are pre-built and injected as
// instances — the Builder simply assembles and starts them.
type Builder struct {
	gw             *Manager
	monitor        monitor.Monitor
	handlerBuilder func(*Manager) api.CommandProcessor
	channels       []api.Channel
}

// NewBuilder creates a fresh Builder instance and allocates an internal
// Manager to be configured.
func NewBuilder() *Builder {
	return &Builder{
		gw: NewManager(),
	}
}

// WithMonitor injects a monitoring implementation into the builder.
// This monitor will be started automatically during the Build() process.
func (b *Builder) WithMonitor(m monitor.Monitor) *Builder {
	b.monitor = m
	return b
}

// WithChannel adds pre-built channel instances to the gateway.
func (b *Builder) WithChannel(channels ...api.Channel) *Builder {
	b.channels = append(b.channels, channels...)
	return b
}

// WithHandler injects a command handler instance into the gateway.
// If the handler implements api.ResponderAware, it will be wired to the
// gateway automatically.
func (b *Builder) WithHandler(h api.CommandProcessor) *Builder {
	return b.WithHandlerFactory(func(*Manager) api.CommandProcessor {
		return h
	})
}

// WithHandlerFactory injects a handler construction strategy. The factory
// receives the assembled Manager, which lets the handler's dependencies
// (e.g., the publishing pipeline) use the gateway itself.
func (b *Builder) WithHandlerFactory(factory func(*Manager) api.CommandProcessor) *Builder {
	b.handlerBuilder = factory
	return b
}

// Build finalizes the configuration, injects all dependencies into the
// Manager, registers all channels, and starts everything. Returns the fully
// operational Manager or an error if any stage fails.
func (b *Builder) Build() (*Manager, error) {
	// 1. Initialize and start the monitoring service
	if b.monitor != nil {
		b.gw.SetMonitor(b.monitor)
		if err := b.monitor.Start(); err != nil {
			return nil, fmt.Errorf("failed to start monitor: %w", err)
		}
	}

	// 2. Register all pre-built channels
	for _, c := range b.channels {
		b.gw.Register(c)
	}

	// 3. Establish the core command handler using the registered strategy
	if b.handlerBuilder != nil {
		handler := b.handlerBuilder(b.gw)
		if handler != nil {
			if setter, ok := handler.(api.ResponderAware); ok {
				setter.SetResponder(b.gw)
			}
			b.gw.SetCommandHandler(handler.OnCommand)
		}
	}

	// 4. Start all registered channels
	if err := b.gw.StartAll(); err != nil {
		return nil, fmt.Errorf("failed to start channels: %w", err)
	}

	return b.gw, nil
}
