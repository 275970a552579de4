package queue

import (
    "context"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Publisher publishes booking events to RabbitMQ.  Each call opens its own
// connection, so a broker outage never blocks request handling for longer
// than the caller's context allows.
type Publisher struct {
    url string
    log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Publish sends ev to the booking.events queue as a persistent JSON
// message.  Errors are logged and returned so the caller can choose to
// ignore them.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
    if err != nil {
        p.log.Warn("rabbitmq dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
        p.log.Warn("rabbitmq queue declare failed", zap.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Kind,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", BookingQueueName, false, false, pub); err != nil {
        p.log.Warn("rabbitmq publish failed", zap.Error(err), zap.String("kind", ev.Kind))
        return err
    }
    return nil
}

// LogPublisher stands in for Publisher when no broker is configured: it
// writes each event to the application log instead.
type LogPublisher struct {
    Log *zap.Logger
}

// Publish logs ev at info level.
func (p LogPublisher) Publish(_ context.Context, ev BookingEvent) error {
    p.Log.Info("booking event",
        zap.String("kind", ev.Kind),
        zap.Uint64("reservation_id", ev.ReservationID),
        zap.Uint64("user_id", ev.UserID),
        zap.Strings("seats", ev.Seats),
        zap.String("total", ev.Total))
    return nil
}
