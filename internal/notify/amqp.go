package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/streadway/amqp"
)

// DefaultExchange receives every status event, routed by "resume.<id>".
const DefaultExchange = "resume_updates"

// Channel is the subset of *amqp.Channel used for publishing.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher opens a short-lived channel per event.
type AMQPPublisher struct {
	Exchange string
	open     func() (Channel, error)
}

// NewAMQPPublisher publishes over conn.
func NewAMQPPublisher(conn *amqp.Connection, exchange string) *AMQPPublisher {
	return newAMQPPublisher(func() (Channel, error) {
		if conn == nil {
			return nil, errors.New("amqp connection not configured")
		}
		return conn.Channel()
	}, exchange)
}

func newAMQPPublisher(open func() (Channel, error), exchange string) *AMQPPublisher {
	if strings.TrimSpace(exchange) == "" {
		exchange = DefaultExchange
	}
	return &AMQPPublisher{Exchange: exchange, open: open}
}

// Dial connects to url and returns a publisher plus the connection closer.
func Dial(url, exchange string) (*AMQPPublisher, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	return NewAMQPPublisher(conn, exchange), conn.Close, nil
}

// RoutingKey returns the routing key for a résumé id.
func RoutingKey(resumeID string) string {
	return "resume." + resumeID
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish(p.Exchange, RoutingKey(ev.ResumeID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

var _ Publisher = (*AMQPPublisher)(nil)
