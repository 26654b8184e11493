// Package mocks provides test doubles for the event bus.
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/buyflow/buyflow/pkg/eventbus"
	"github.com/buyflow/buyflow/pkg/events"
)

// MockEventBus is a mock implementation of the eventbus.EventBus interface.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}

// CapturingPublisher records every published event for inspection. Publish
// never fails unless FailAll is set.
type CapturingPublisher struct {
	mu      sync.Mutex
	FailAll error
	Events  []eventbus.Event
}

func (p *CapturingPublisher) Publish(ctx context.Context, key string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailAll != nil {
		return p.FailAll
	}

	p.Events = append(p.Events, event)

	return nil
}

// Published returns the captured events of the given type.
func (p *CapturingPublisher) Published(eventType events.EventType) []eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []eventbus.Event

	for _, event := range p.Events {
		if event.GetType() == eventType {
			out = append(out, event)
		}
	}

	return out
}
