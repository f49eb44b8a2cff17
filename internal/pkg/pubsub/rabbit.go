package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const ExchangePerilTopic = "peril_topic"

type SimpleQueueType int

const (
	DurableSimpleQueue SimpleQueueType = iota
	TransientSimpleQueue
)

var errDeliveriesClosed = errors.New("rabbitmq deliveries channel closed")

type RabbitBroker struct {
	conn *amqp.Connection

	mu        sync.Mutex
	publishCh *amqp.Channel
}

func NewRabbitBroker(connUrl string) (*RabbitBroker, error) {
	conn, err := amqp.Dial(connUrl)
	if err != nil {
		return nil, fmt.Errorf("failed dialing rabbitmq: %w", err)
	}

	publishCh, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed creating rabbitmq channel: %w", err)
	}

	err = publishCh.ExchangeDeclare(
		ExchangePerilTopic, // name
		amqp.ExchangeTopic, // kind
		true,               // durable
		false,              // auto-delete
		false,              // internal
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed declaring exchange %s: %w", ExchangePerilTopic, err)
	}

	log.Info().Str("exchange", ExchangePerilTopic).Msg("Connected to rabbitmq")
	return &RabbitBroker{conn: conn, publishCh: publishCh}, nil
}

func (b *RabbitBroker) Publish(ctx context.Context, message Publishable) error {
	data, err := utils.JsonEncode(message)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publishCh.PublishWithContext(
		ctx,
		ExchangePerilTopic,
		message.GetEventTopicName(),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
}

func (b *RabbitBroker) Subscribe(ctx context.Context, handler SubscriptionHandler) error {
	rabbitChan, queue, err := DeclareAndBind(
		b.conn,
		ExchangePerilTopic,
		handler.SubscriptionId,
		handler.Topic,
		handler.QueueType,
	)
	if err != nil {
		return fmt.Errorf("could not declare and bind queue: %w", err)
	}
	defer rabbitChan.Close()

	msgs, err := rabbitChan.Consume(
		queue.Name, // queue
		"",         // consumer
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("could not consume messages: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			if err := settle(msg, handler.Handler(ctx, msg.Body)); err != nil {
				log.Warn().Err(err).Str("queue", queue.Name).Msg("Could not settle delivery")
			}
		}
	}
}

func settle(msg amqp.Delivery, ack AckType) error {
	switch ack {
	case Ack:
		return msg.Ack(false)
	case NackRequeue:
		return msg.Nack(false, true)
	default:
		return msg.Nack(false, false)
	}
}

func (b *RabbitBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.publishCh.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing rabbitmq publish channel")
	}
	return b.conn.Close()
}

func DeclareAndBind(
	conn *amqp.Connection,
	exchange,
	queueName,
	key string,
	simpleQueueType SimpleQueueType,
) (*amqp.Channel, amqp.Queue, error) {
	sQ, err := newSimpleQueue(queueName, simpleQueueType)
	if err != nil {
		return nil, amqp.Queue{}, err
	}

	rabbitChan, err := conn.Channel()
	if err != nil {
		return nil, amqp.Queue{}, err
	}

	queue, err := rabbitChan.QueueDeclare(
		sQ.name,
		sQ.durable,
		sQ.autoDelete,
		sQ.exclusive,
		sQ.noWait,
		sQ.args,
	)
	if err != nil {
		rabbitChan.Close()
		return nil, amqp.Queue{}, err
	}

	err = rabbitChan.QueueBind(
		sQ.name,
		key,
		exchange,
		sQ.noWait,
		sQ.args,
	)
	if err != nil {
		rabbitChan.Close()
		return nil, amqp.Queue{}, err
	}

	return rabbitChan, queue, nil
}

type simpleQueue struct {
	name       string
	durable    bool
	autoDelete bool
	exclusive  bool
	noWait     bool
	args       amqp.Table
}

func newSimpleQueue(
	queueName string,
	simpleQueueType SimpleQueueType,
) (*simpleQueue, error) {
	var durable, autoDelete, exclusive bool
	switch simpleQueueType {
	case DurableSimpleQueue:
		durable = true
	case TransientSimpleQueue:
		autoDelete = true
		exclusive = true
	default:
		return nil, fmt.Errorf("error creating SimpleQueue, wrong SimpleQueueType %d", simpleQueueType)
	}

	return &simpleQueue{
		name:       queueName,
		durable:    durable,
		autoDelete: autoDelete,
		exclusive:  exclusive,
	}, nil
}
