// Package brokertest provides an in-memory broker.Client for tests.
package brokertest

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Token is an already-completed mqtt.Token.
type Token struct {
	Err error
}

func (t *Token) Wait() bool { return true }
func (t *Token) WaitTimeout(time.Duration) bool { return true }
func (t *Token) Error() error { return t.Err }

func (t *Token) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// StalledToken is never acknowledged, like a publish queued while the
// client reconnects.
type StalledToken struct{}

func (StalledToken) Wait() bool {
	select {}
}

func (StalledToken) WaitTimeout(d time.Duration) bool {
	time.Sleep(d)
	return false
}

func (StalledToken) Error() error { return nil }

func (StalledToken) Done() <-chan struct{} { return nil }

// Message is a received mqtt.Message.
type Message struct {
	TopicName string
	Body      []byte
	Retain    bool
}

func (m *Message) Duplicate() bool { return false }
func (m *Message) Qos() byte { return 1 }
func (m *Message) Retained() bool { return m.Retain }
func (m *Message) Topic() string { return m.TopicName }
func (m *Message) MessageID() uint16 { return 0 }
func (m *Message) Payload() []byte { return m.Body }
func (m *Message) Ack() {}

// Client records publishes and routes Deliver calls to subscribers by exact
// topic match.
type Client struct {
	mu         sync.Mutex
	Published  []Message
	handlers   map[string]mqtt.MessageHandler
	PublishErr error
	// Stall makes every publish return a StalledToken after recording it.
	Stall bool
}

// NewClient returns an empty client.
func NewClient() *Client {
	return &Client{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *Client) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.PublishErr != nil {
		return &Token{Err: c.PublishErr}
	}
	var body []byte
	switch p := payload.(type) {
	case []byte:
		body = p
	case string:
		body = []byte(p)
	}
	c.Published = append(c.Published, Message{TopicName: topic, Body: body, Retain: retained})
	if c.Stall {
		return StalledToken{}
	}
	return &Token{}
}

func (c *Client) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = callback
	return &Token{}
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	return &Token{}
}

// Subscribed reports whether a handler is registered for topic.
func (c *Client) Subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[topic]
	return ok
}

// Deliver hands payload to the subscriber of topic, if any.
func (c *Client) Deliver(topic string, payload []byte) {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	if h != nil {
		h(nil, &Message{TopicName: topic, Body: payload})
	}
}

// Messages returns a copy of everything published so far.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.Published...)
}
