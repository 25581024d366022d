package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"price-alert-bot/config"
	"price-alert-bot/internal/alert"
	"price-alert-bot/internal/database"
	"price-alert-bot/internal/metrics"
	"price-alert-bot/internal/price"
	"price-alert-bot/internal/telegram"
	"price-alert-bot/lib/translation"
	"runtime"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const metricsSaveInterval = 5 * time.Minute

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	translation.Configure(config.GetString("locales_path"), config.GetString("lang"))
	log.Debugf("Using language %s", translation.GetLanguage())

	policy, err := alert.ParseDeliveryPolicy(config.GetString("delivery_policy"))
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	botMetrics := metrics.New(prometheus.DefaultRegisterer)

	var store *database.Store
	if dbPath := config.GetString("db_path"); dbPath != "" {
		store, err = database.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		if err := botMetrics.Load(store); err != nil {
			log.Errorf("Failed to load metrics: %v", err)
		}
	}

	source := price.NewSource(price.Config{
		APIKey:   config.GetString("api_pro_key"),
		Timeout:  config.GetDuration("fetch_timeout"),
		CacheTTL: config.GetDuration("price_cache_ttl"),
	})
	registry := alert.NewRegistry()

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
		RequestTimeout: config.GetDuration("send_timeout"),
		Symbols:        source.Symbols(),
	}, registry, source, botMetrics)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	scheduler := alert.NewScheduler(registry, source, bot, alert.SchedulerConfig{
		Interval:     config.GetDuration("check_interval"),
		Delay:        config.GetDuration("check_delay"),
		FetchTimeout: config.GetDuration("fetch_timeout"),
		Policy:       policy,
		Metrics:      botMetrics,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errGroup, errCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return scheduler.Run(errCtx)
	})

	errGroup.Go(func() error {
		updates := bot.GetUpdatesChannel()
		go func() {
			<-errCtx.Done()
			bot.StopReceivingUpdates()
		}()
		handleUpdates(errCtx, bot, botMetrics, updates)
		return nil
	})

	errGroup.Go(func() error {
		return launchMetricsAndHealthServer(errCtx, config.GetInt("metrics_port"))
	})

	if store != nil {
		errGroup.Go(func() error {
			ticker := time.NewTicker(metricsSaveInterval)
			defer ticker.Stop()
			for {
				select {
				case <-errCtx.Done():
					return nil
				case <-ticker.C:
					if err := botMetrics.Save(store); err != nil {
						log.Errorf("Failed to save metrics: %v", err)
					}
				}
			}
		})
	}

	if err := errGroup.Wait(); err != nil {
		log.Errorf("Stopped with error: %v", err)
	}

	if store != nil {
		if err := botMetrics.Save(store); err != nil {
			log.Errorf("Failed to save metrics: %v", err)
		}
	}
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, botMetrics *metrics.Metrics, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if ctx.Err() != nil {
			return
		}

		switch {
		case update.CallbackQuery != nil:
			bot.HandleCallbackQuery(update.CallbackQuery)
		case update.InlineQuery != nil:
			if err := bot.HandleInlineQuery(ctx, update.InlineQuery); err != nil {
				log.Error(err)
			}
		case update.Message != nil:
			botMetrics.MessageHandled()
			handleMessage(ctx, bot, update.Message)
		default:
			log.Debug("Received unsupported update")
		}
	}
}

func handleMessage(ctx context.Context, bot *telegram.Bot, message *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	var reply telegram.Message
	if message.IsCommand() {
		reply = bot.HandleCommand(ctx, message)
	} else {
		var awaiting bool
		if reply, awaiting = bot.HandleText(ctx, message); !awaiting {
			return
		}
	}

	if err := bot.SendMessage(reply); err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Infof("Launching metrics and health endpoint on :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
