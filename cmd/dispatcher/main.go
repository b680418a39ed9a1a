// cmd/dispatcher/main.go
package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/centrocomm/messaging-backend/internal/config"
	"github.com/centrocomm/messaging-backend/internal/db"
	"github.com/centrocomm/messaging-backend/internal/logger"
	"github.com/centrocomm/messaging-backend/internal/provider"
	"github.com/centrocomm/messaging-backend/internal/queue"
	"github.com/centrocomm/messaging-backend/internal/repository"
	"github.com/centrocomm/messaging-backend/internal/sender"
	"github.com/centrocomm/messaging-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer zlog.Sync()

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	eventRepo := &repository.MessageEventRepository{DB: conn}
	messageRepo := &repository.MessageRepository{DB: conn}
	orgRepo := &repository.OrgRepository{DB: conn}

	registry := buildSenders(cfg, messageRepo, zlog)

	dispatcher := service.NewDispatcher(
		eventRepo, campaignRepo, templateRepo, customerRepo, orgRepo,
		registry,
		service.BatchLimits{
			Transactional: cfg.BatchLimitTransactional,
			Interactive:   cfg.BatchLimitInteractive,
			Scheduled:     cfg.BatchLimitScheduled,
		},
		zlog,
	)
	dispatcher.WarnStale(time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// desynchronize replicas started together
	if cfg.DispatchStartJitterSec > 0 {
		jitter := time.Duration(rand.Intn(cfg.DispatchStartJitterSec)) * time.Second
		zlog.Info("delaying first sweep", zap.Duration("jitter", jitter))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return
		}
	}

	go consumeIntake(ctx, cfg, eventRepo, zlog)

	c := cron.New()
	if _, err := c.AddFunc(cfg.DispatchCron, func() { dispatcher.Sweep(ctx) }); err != nil {
		zlog.Fatal("bad dispatch cron spec", zap.String("spec", cfg.DispatchCron), zap.Error(err))
	}
	c.Start()
	zlog.Info("dispatcher running", zap.String("cron", cfg.DispatchCron))

	<-ctx.Done()
	zlog.Info("shutting down, waiting for running sweep")
	<-c.Stop().Done()
}

func buildSenders(cfg *config.Config, messages *repository.MessageRepository, zlog *zap.Logger) *sender.Registry {
	mailgun := provider.NewMailgunClient(cfg.MailgunAPIBase, cfg.MailgunAPIKey)
	twilio := provider.NewTwilioClient(cfg.TwilioAPIBase, cfg.TwilioAccountSID, cfg.TwilioAuthToken)

	return sender.NewRegistry(
		sender.New(
			sender.NewEmailSender(mailgun, cfg.EmailDefaultSender, cfg.EmailTestMode),
			cfg.EmailEnabled, messages, zlog),
		sender.New(
			sender.NewSmsSender(twilio, cfg.SmsDefaultSender, cfg.TwilioTestMode),
			cfg.SmsEnabled, messages, zlog),
		sender.New(
			sender.NewWhatsAppSender(twilio, cfg.WhatsAppDefaultSender, cfg.TwilioTestMode),
			cfg.WhatsAppEnabled, messages, zlog),
	)
}

// consumeIntake drains the producer queue into the event store, redialing
// with backoff when the broker connection drops.
func consumeIntake(ctx context.Context, cfg *config.Config, events repository.MessageEventRepositoryInterface, zlog *zap.Logger) {
	intake := &queue.Intake{Events: events, Log: zlog}

	for ctx.Err() == nil {
		conn, err := amqp.Dial(cfg.AmqpURL)
		if err != nil {
			zlog.Warn("amqp dial failed, retrying", zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
			continue
		}

		ch, err := conn.Channel()
		if err != nil {
			zlog.Warn("amqp channel failed, retrying", zap.Error(err))
			conn.Close()
			continue
		}

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		zlog.Info("intake consuming", zap.String("queue", cfg.IntakeQueueName))
		if err := intake.Consume(ch, cfg.IntakeQueueName); err != nil && ctx.Err() == nil {
			zlog.Warn("intake consumer stopped, redialing", zap.Error(err))
		}
		conn.Close()
	}
}
