package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// common bus package

type Message struct {
	ID    int
	Topic string
	Type  string
	Data  interface{}

	Error     error
	RespondTo int

	bus *Bus
}

var DefaultTimeout = 60 * time.Second

var ErrInvalidMessageData = errors.New("invalid message data")
var ErrTimeout = errors.New("timeout")
var ErrClosed = errors.New("bus closed")

type Bus struct {
	Timeout time.Duration

	subscribers map[string][]chan *Message //topic -> subscribers
	m           sync.Mutex
	in          chan *Message
	nextID      int
	done        chan struct{}
	closeOnce   sync.Once
}

func New() *Bus {
	b := &Bus{
		Timeout:     DefaultTimeout,
		subscribers: make(map[string][]chan *Message),
		in:          make(chan *Message, 1000),
		done:        make(chan struct{}),
	}
	go b.processMessages()
	return b
}

func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bus) processMessages() {
	for {
		select {
		case <-b.done:
			return
		case msg := <-b.in:
			b.m.Lock()
			for _, subscriber := range b.subscribers[msg.Topic] {
				subscriber <- msg
			}
			b.m.Unlock()
		}
	}
}

func (b *Bus) Subscribe(topic ...string) chan *Message {
	log.Trace().Msgf("bus.Subscribing to %v", topic)

	b.m.Lock()
	defer b.m.Unlock()

	ch := make(chan *Message, 1000)

	added := make(map[string]bool)
	for _, t := range topic {
		if added[t] { // prevent duplicate subscriptions
			continue
		}
		added[t] = true
		b.subscribers[t] = append(b.subscribers[t], ch)
	}

	return ch
}

func (b *Bus) Unsubscribe(ch chan *Message) {
	log.Trace().Msg("bus.Unsubscribing")

	b.m.Lock()
	defer b.m.Unlock()

	for t, subs := range b.subscribers {
		for i, subscriber := range subs {
			if subscriber == ch {
				b.subscribers[t] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}

	close(ch)
}

func (b *Bus) SendEx(topic, t string, data interface{}, respond_to int, err error) int {
	b.m.Lock()
	b.nextID++
	msg := &Message{
		ID:        b.nextID,
		Topic:     topic,
		Type:      t,
		Data:      data,
		Error:     err,
		RespondTo: respond_to,
		bus:       b,
	}
	b.m.Unlock()

	if respond_to != 0 {
		log.Trace().Msgf("   %04d->%s: %s respond to: %d, error: %v", msg.ID, topic, t, respond_to, err)
	} else {
		log.Trace().Msgf("   %04d->%s: %s", msg.ID, topic, t)
	}

	select {
	case b.in <- msg:
	case <-b.done:
	}
	return msg.ID
}

func (b *Bus) Send(topic, t string, data interface{}) int {
	return b.SendEx(topic, t, data, 0, nil)
}

func (m *Message) Respond(data interface{}, err error) int {
	if m.bus == nil {
		return 0
	}
	return m.bus.SendEx(m.Topic, m.Type+"_response", data, m.ID, err)
}

// Fetch sends a request and waits for its response, ctx cancellation or
// the bus timeout, whichever comes first.
func (b *Bus) Fetch(ctx context.Context, topic, t string, data interface{}) *Message {
	ch := b.Subscribe(topic)
	defer b.Unsubscribe(ch)

	id := b.Send(topic, t, data)
	log.Trace().Msgf("   FETCH %04d->%s: %s", id, topic, t)

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if msg.RespondTo == id {
				return msg
			}
		case <-ctx.Done():
			return &Message{Topic: topic, Type: t + "_response", RespondTo: id, Error: ctx.Err()}
		case <-timer.C:
			return &Message{Topic: topic, Type: t + "_response", RespondTo: id, Error: ErrTimeout}
		case <-b.done:
			return &Message{Topic: topic, Type: t + "_response", RespondTo: id, Error: ErrClosed}
		}
	}
}
