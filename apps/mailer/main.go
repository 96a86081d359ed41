package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go-jewelry/pkg/config"
	"go-jewelry/pkg/logger"
	"go-jewelry/pkg/mailer"

	"go.uber.org/zap"
)

// mailer 消费邮件队列并通过 SMTP 投递
func main() {
	c, err := config.LoadConfigOrDefault(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Environment: c.Service.Environment,
		Level:       c.Log.Level,
		Service:     "mailer",
	})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	conn, ch, err := mailer.Connect(c.RabbitMQ.URL, c.RabbitMQ.MailQueue)
	if err != nil {
		zl.Fatal("connect rabbitmq", zap.Error(err))
	}
	defer conn.Close()
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := mailer.NewConsumer(mailer.NewSMTPSender(c.SMTP), zl)
	zl.Info("mailer consuming", zap.String("queue", c.RabbitMQ.MailQueue))
	if err := consumer.Run(ctx, ch, c.RabbitMQ.MailQueue); err != nil {
		zl.Error("mailer stopped", zap.Error(err))
		return
	}
	zl.Info("mailer shut down")
}
