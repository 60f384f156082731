package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"github.com/tuitionpay/escrowhub/db"
	"github.com/tuitionpay/escrowhub/kafka"
	"github.com/tuitionpay/escrowhub/lib"
	"github.com/tuitionpay/escrowhub/lib/service"
	"github.com/tuitionpay/escrowhub/lib/tokens"
	"github.com/tuitionpay/escrowhub/lib/transport"
	"github.com/tuitionpay/escrowhub/rabbitmq"
	ddEcho "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configrued log file
	logger := lib.Logger(c.LogFilePath)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	// memory:// keeps the ledger in process, anything else is migrated postgres
	ledgerStore, dbConn, err := db.OpenStore(startupCtx, c)
	if err != nil {
		logger.Fatalf("Error opening ledger store: %v", err)
	}
	if dbConn != nil {
		defer dbConn.Close()
	}

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	svc, coin, err := service.NewStablecoinLedger(startupCtx, c, ledgerStore, logger)
	if err != nil {
		logger.Fatalf("Error initializing the ledger: %v", err)
	}

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// No rabbitmq features will be available in this case.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		amqpClient, err := rabbitmq.DialAMQP(c.RabbitMQUri, rabbitmq.WithAmqpLogger(logger))
		if err != nil {
			logger.Fatal(err)
		}

		rabbitmqClient, err = rabbitmq.NewClient(amqpClient,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithEscrowExchange(c.RabbitMQEscrowExchange),
		)
		if err != nil {
			logger.Fatal(err)
		}

		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
	}

	var kafkaProducer *kafka.Producer
	if len(c.KafkaBrokers) > 0 {
		kafkaProducer = kafka.NewProducer(kafka.NewWriter(c.KafkaBrokers, c.KafkaEscrowTopic, logger), logger)
		defer kafkaProducer.Close()
	}

	//init echo server
	e := transport.InitEcho(c, logger)
	//if Datadog is configured, add datadog middleware
	if c.DatadogAgentUrl != "" {
		tracer.Start(tracer.WithAgentAddr(c.DatadogAgentUrl))
		defer tracer.Stop()
		e.Use(ddEcho.Middleware(ddEcho.WithServiceName("escrowhub")))
	}

	logMw := transport.CreateLoggingMiddleware(logger)
	// strict rate limit for requests that move funds
	strictRateLimitMiddleware := transport.CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)

	secured := e.Group("", tokens.Middleware(c.JWTSecret), logMw)
	securedWithStrictRateLimit := e.Group("", tokens.Middleware(c.JWTSecret), strictRateLimitMiddleware, logMw)

	transport.RegisterV2Endpoints(svc, coin, e, secured, securedWithStrictRateLimit, tokens.AdministratorMiddleware(svc.Administrator))

	var backgroundWg sync.WaitGroup
	backGroundCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	//Start webhook subscription
	if c.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			svc.StartWebhookSubscription(backGroundCtx, c.WebhookUrl)
			svc.Logger.Info("Webhook routine done")
			backgroundWg.Done()
		}()
	}
	//Start rabbit publisher
	if rabbitmqClient != nil {
		backgroundWg.Add(1)
		go func() {
			err := rabbitmqClient.StartPublishEvents(backGroundCtx,
				svc.SubscribeLedgerEvents,
				svc.EncodeLedgerEvent,
			)
			if err != nil && err != context.Canceled {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}

			svc.Logger.Info("Rabbit event publisher done")
			backgroundWg.Done()
		}()
	}
	//Start kafka publisher
	if kafkaProducer != nil {
		backgroundWg.Add(1)
		go func() {
			err := kafkaProducer.StartPublishEvents(backGroundCtx,
				svc.SubscribeLedgerEvents,
				svc.EncodeLedgerEvent,
			)
			if err != nil && err != context.Canceled {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}

			svc.Logger.Info("Kafka event publisher done")
			backgroundWg.Done()
		}()
	}
	// Compare custody with deposited payments in the background
	backgroundWg.Add(1)
	go func() {
		err := svc.StartCustodyAuditRoutine(backGroundCtx, c.CustodyAuditInterval)
		if err != nil && err != context.Canceled {
			sentry.CaptureException(err)
			svc.Logger.Error(err)
		}
		svc.Logger.Info("Custody audit routine done")
		backgroundWg.Done()
	}()

	//Start Prometheus server if necessary
	var echoPrometheus *echo.Echo
	if c.EnablePrometheus {
		echoPrometheus = transport.StartPrometheusEcho(logger, c.PrometheusPort, e)
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	if echoPrometheus != nil {
		if err := echoPrometheus.Shutdown(ctx); err != nil {
			e.Logger.Fatal(err)
		}
	}
	//Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	svc.Logger.Info("Escrowhub exiting gracefully. Goodbye.")
}
