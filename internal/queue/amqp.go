// internal/queue/amqp.go
package queue

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// AMQPBus fans room broadcasts out across server instances through a
// RabbitMQ fanout exchange. Each instance consumes from its own exclusive
// queue bound to the exchange, so every instance sees every update.
type AMQPBus struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPBus connects to RabbitMQ at the given URL.
func NewAMQPBus(url string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return &AMQPBus{conn: conn, ch: ch}, nil
}

func (b *AMQPBus) Publish(topic string, payload []byte) error {
	if err := b.declareExchange(topic); err != nil {
		return err
	}
	return b.ch.Publish(
		topic, // exchange
		"",    // routing key (ignored by fanout)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

// Subscribe binds an instance-private queue to the topic's fanout exchange
// and delivers every message to the handler on a background goroutine.
func (b *AMQPBus) Subscribe(topic string, handler func(payload []byte)) error {
	if err := b.declareExchange(topic); err != nil {
		return err
	}

	q, err := b.ch.QueueDeclare(
		"",    // name: broker-generated
		false, // durable: collab traffic is ephemeral
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := b.ch.QueueBind(q.Name, "", topic, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := b.ch.Consume(
		q.Name,
		"",
		true, // autoAck: no retries, lost updates are acceptable
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			handler(d.Body)
		}
		log.Println("⚠️ AMQP consumer closed for topic", topic)
	}()

	return nil
}

func (b *AMQPBus) declareExchange(topic string) error {
	return b.ch.ExchangeDeclare(
		topic,
		"fanout",
		false, // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

func (b *AMQPBus) Close() error {
	if err := b.ch.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}

var _ Bus = (*AMQPBus)(nil)
