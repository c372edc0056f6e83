// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package channel

import (
	"sync"

	"github.com/gogpu/framebridge"
)

// KindFramePort is the notification kind that carries the UI end of the
// dedicated frame channel.
const KindFramePort = "frame-port"

// Notification is a system notification delivered outside of any Port.
type Notification struct {
	Kind string
	Port *Port
}

// Bus delivers notifications to subscribers by kind. It stands in for the
// system message path between the engine context and the UI context.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]chan Notification
}

// NewBus creates an empty notification bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]chan Notification)}
}

// Subscribe registers interest in one notification of the given kind.
// The returned channel receives at most one notification; cancel removes
// the subscription and is safe to call more than once.
func (b *Bus) Subscribe(kind string) (<-chan Notification, func()) {
	ch := make(chan Notification, 1)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[uint64]chan Notification)
	}
	b.subs[kind][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[kind], id)
		b.mu.Unlock()
	}
	return ch, cancel
}

// Post delivers n to the current subscribers of n.Kind and returns how many
// received it. Each subscriber receives one notification and is then
// removed. A notification nobody listens for is dropped.
func (b *Bus) Post(n Notification) int {
	b.mu.Lock()
	subs := b.subs[n.Kind]
	delete(b.subs, n.Kind)
	b.mu.Unlock()

	for _, ch := range subs {
		ch <- n
	}
	if len(subs) == 0 {
		framebridge.Logger().Warn("channel: notification dropped, no subscriber", "kind", n.Kind)
	}
	return len(subs)
}
