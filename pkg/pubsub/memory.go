package pubsub

import (
	"context"
	"sync"
)

// Message is one payload delivered to a Memory subscriber.
type Message struct {
	Topic   string
	Payload []byte
}

// Memory is an in-process Publisher. Delivery never blocks: a subscriber
// whose buffer is full misses the message.
type Memory struct {
	lock    sync.RWMutex
	closed  bool
	readers map[string]map[chan Message]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		readers: make(map[string]map[chan Message]struct{}),
	}
}

// Subscribe registers a reader for topic. The returned cancel func removes
// it and closes the channel; it is safe to call more than once.
func (m *Memory) Subscribe(topic string, buffer int) (<-chan Message, func()) {
	ch := make(chan Message, buffer)

	m.lock.Lock()
	if m.closed {
		m.lock.Unlock()
		close(ch)
		return ch, func() {}
	}
	if _, ok := m.readers[topic]; !ok {
		m.readers[topic] = make(map[chan Message]struct{})
	}
	m.readers[topic][ch] = struct{}{}
	m.lock.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { m.remove(topic, ch) })
	}
}

func (m *Memory) remove(topic string, ch chan Message) {
	m.lock.Lock()
	defer m.lock.Unlock()

	readers, ok := m.readers[topic]
	if !ok {
		return
	}
	if _, ok := readers[ch]; !ok {
		return
	}
	delete(readers, ch)
	if len(readers) == 0 {
		delete(m.readers, topic)
	}
	close(ch)
}

func (m *Memory) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.closed {
		return ErrClosed
	}

	msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
	for ch := range m.readers[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Close closes every subscriber channel. Publish fails afterwards.
func (m *Memory) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for topic, readers := range m.readers {
		for ch := range readers {
			close(ch)
		}
		delete(m.readers, topic)
	}
	return nil
}
