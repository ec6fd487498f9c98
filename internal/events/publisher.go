// Package events publishes command-audit events for remotely executed
// commands to a message queue, when one is configured.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CommandEvent records one remote command execution.
type CommandEvent struct {
	ID       string    `json:"id"`
	Host     string    `json:"host"`
	Username string    `json:"username"`
	Command  string    `json:"command"`
	OK       bool      `json:"ok"`
	TookMS   int64     `json:"took_ms"`
	At       time.Time `json:"at"`
}

// NewCommandEvent builds an event with a fresh ID and timestamp.
func NewCommandEvent(host string, username string, command string, ok bool, took time.Duration) *CommandEvent {
	return &CommandEvent{
		ID:       uuid.New().String(),
		Host:     host,
		Username: username,
		Command:  command,
		OK:       ok,
		TookMS:   took.Milliseconds(),
		At:       time.Now().UTC(),
	}
}

type Publisher interface {
	PublishCommand(event *CommandEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no queue is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCommand(*CommandEvent) error { return nil }
func (NopPublisher) Close() error                       { return nil }

// ForQueue returns an AMQP publisher when url is set, a NopPublisher
// otherwise.
func ForQueue(url string, queue string) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	return NewAMQPPublisher(url, queue)
}

// AMQPPublisher publishes command events to a durable RabbitMQ queue.
// The connection is established lazily on first publish.
type AMQPPublisher struct {
	url      string
	queue    string
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	isClosed bool
}

func NewAMQPPublisher(url string, queue string) *AMQPPublisher {
	return &AMQPPublisher{
		url:   url,
		queue: queue,
	}
}

func (p *AMQPPublisher) connectLocked() error {
	if p.channel != nil {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // auto-deleted
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	p.conn = conn
	p.channel = ch
	return nil
}

func (p *AMQPPublisher) PublishCommand(event *CommandEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		return fmt.Errorf("publisher is closed")
	}

	if err := p.connectLocked(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		"",      // exchange (default)
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isClosed {
		return nil
	}

	var errs []error

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	p.isClosed = true

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}
