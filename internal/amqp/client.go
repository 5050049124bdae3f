package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"teddy/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker is open")
	ErrChannelClosed = errors.New("message channel closed")
)

// Handler processes one change message. A returned error requeues the delivery once.
type Handler func(ctx context.Context, msg *TransactionsChangedMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setup(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ensureChannel returns an open channel, reconnecting if the previous one died.
func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() && c.conn != nil && !c.conn.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	c.logger.Info("Reconnected to AMQP broker", "exchange", c.exchangeName, "queue", c.queueName)
	return c.channel, nil
}

// PublishTransactionsChanged publishes a persistent change notification.
func (c *Client) PublishTransactionsChanged(ctx context.Context, path string, count int, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish skipped: %w", ErrCircuitOpen)
	}

	body, err := NewTransactionsChangedMessage(path, count, op).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.reset()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published transactions changed message",
		log.FieldOperation, log.OpPublish,
		log.FieldDocumentPath, path,
		log.FieldCount, count,
		"op", op)
	return nil
}

// Consume delivers change messages to handler until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := Backoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "AMQP consumer interrupted, reconnecting",
			log.FieldError, err, "retry_in", delay.String())
		c.reset()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler, connected func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()
	c.logger.InfoContext(ctx, "Started consuming transactions changed messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

// Acknowledger is the part of a delivery the consumer settles.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	settle(ctx, c.logger, d.Body, d.Redelivered, d, handler)
}

// settle decodes body, runs handler and acks or nacks. Undecodable messages
// are dropped; a failing handler gets one redelivery.
func settle(ctx context.Context, logger *log.Logger, body []byte, redelivered bool, ack Acknowledger, handler Handler) {
	msg, err := TransactionsChangedMessageFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to decode message", log.FieldError, err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle message",
			log.FieldError, err,
			log.FieldDocumentPath, msg.Path,
			"redelivered", redelivered)
		_ = ack.Nack(false, !redelivered)
		return
	}

	_ = ack.Ack(false)
	logger.DebugContext(ctx, "Processed transactions changed message",
		log.FieldDocumentPath, msg.Path, log.FieldCount, msg.Count, "op", msg.Op)
}

// Backoff returns the reconnect delay for attempt, doubling from one second
// up to thirty.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.logger.Warn("AMQP circuit breaker opened", "failures", atomic.LoadInt64(&c.failureCount))
		}
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}
	return err
}
