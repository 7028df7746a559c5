package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"wordbearer/domain"
)

// RabbitMQ carries message jobs published by other services.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     logrus.FieldLogger
}

// NewRabbitMQ dials with exponential backoff until ctx is done and declares
// the durable job queue.
func NewRabbitMQ(ctx context.Context, url, queue string, log logrus.FieldLogger) (*RabbitMQ, error) {
	retry := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)
	conn, err := backoff.RetryWithData(func() (*amqp.Connection, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warn("rabbitmq not reachable yet")
		}
		return conn, err
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	log.WithField("queue", q.Name).Info("connected to RabbitMQ")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

func (r *RabbitMQ) PublishJob(ctx context.Context, job domain.MessageJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// ConsumeJobs hands every delivered job to handle until ctx is done.
// Deliveries are acked once handled; malformed or rejected jobs are dropped,
// other failures are requeued.
func (r *RabbitMQ) ConsumeJobs(ctx context.Context, handle func(context.Context, domain.MessageJob) error) error {
	msgs, err := r.channel.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	closed := r.conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			return fmt.Errorf("rabbitmq connection closed: %v", amqpErr)
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			r.deliver(ctx, d, handle)
		}
	}
}

// stableConsumer is how long a consumer must run before a later failure
// starts the backoff over.
const stableConsumer = time.Minute

// ConsumeJobsUntilDone keeps a consumer on the queue until ctx is done,
// reconnecting whenever dialing fails or the broker goes away. Failures are
// logged, never returned.
func ConsumeJobsUntilDone(ctx context.Context, url, queue string, log logrus.FieldLogger, handle func(context.Context, domain.MessageJob) error) {
	retry := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithMaxInterval(time.Minute),
		backoff.WithMaxElapsedTime(0),
	)
	superviseConsumer(ctx, backoff.WithContext(retry, ctx), log, func(ctx context.Context) error {
		mq, err := NewRabbitMQ(ctx, url, queue, log)
		if err != nil {
			return err
		}
		defer func() { _ = mq.Close() }()
		return mq.ConsumeJobs(ctx, handle)
	})
}

func superviseConsumer(ctx context.Context, b backoff.BackOff, log logrus.FieldLogger, consume func(context.Context) error) {
	for {
		started := time.Now()
		err := consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > stableConsumer {
			b.Reset()
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			log.WithError(err).Error("giving up on rabbitmq consumer")
			return
		}
		log.WithError(err).WithField("retry_in", wait).Warn("rabbitmq consumer stopped, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (r *RabbitMQ) deliver(ctx context.Context, d amqp.Delivery, handle func(context.Context, domain.MessageJob) error) {
	var job domain.MessageJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		r.log.WithError(err).Warn("dropping malformed message job")
		_ = d.Nack(false, false)
		return
	}
	if err := handle(ctx, job); err != nil {
		requeue := !isPermanent(err)
		r.log.WithError(err).WithFields(logrus.Fields{"job": job.ID, "requeue": requeue}).Error("queued message job failed")
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidJob)
}
