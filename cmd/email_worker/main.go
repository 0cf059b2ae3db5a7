package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-recipe-api/config"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
	"github.com/oksasatya/go-recipe-api/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch between workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}

	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}
	if err := helpers.DeclareRetryQueues(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("retry queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			action, job, err := mailer.Handle(c, mg, msg.Body)
			cancel()

			entry := logger.WithFields(logrus.Fields{"message_id": msg.MessageId, "template": job.Template})
			switch action {
			case mailer.Drop:
				entry.WithError(err).Warn("dropping email job")
				_ = msg.Nack(false, false)
			case mailer.Requeue:
				retry(ctx, ch, cfg.RabbitMQEmailQueue, msg, entry.WithError(err))
			default:
				entry.Debug("email sent")
				_ = msg.Ack(false)
			}
		}
		close(done)
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// retry hands a failed job to the delay queue, or to the parking queue once
// its attempts are used up. The original is acked only after the copy is
// published; otherwise it goes back to the broker.
func retry(ctx context.Context, ch *amqp.Channel, queue string, msg amqp.Delivery, entry *logrus.Entry) {
	attempt := helpers.RetryCount(msg.Headers) + 1
	entry = entry.WithField("attempt", attempt)

	target := helpers.RetryQueue(queue)
	delay, ok := mailer.RetryDelay(attempt)
	if !ok {
		target = helpers.ParkingQueue(queue)
	}

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ch.PublishWithContext(c, "", target, false, false, helpers.RetryPublishing(msg, attempt, delay)); err != nil {
		entry.WithError(err).Error("republish failed, returning job to queue")
		time.Sleep(time.Second)
		_ = msg.Nack(false, true)
		return
	}
	if ok {
		entry.WithField("delay", delay.String()).Warn("send failed, retry scheduled")
	} else {
		entry.Error("send failed, attempts exhausted; job parked")
	}
	_ = msg.Ack(false)
}
