package main

import (
	"context"
	"errors"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/amqp"
	"kopilka/internal/bot"
	"kopilka/internal/cache"
	"kopilka/internal/cli"
	"kopilka/internal/config"
	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/parser"
	"kopilka/internal/ratelimit"
	"kopilka/internal/services"
)

const (
	reportCacheSize      = 500
	cacheCleanupInterval = 10 * time.Minute
	shutdownTimeout      = 15 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentBot)
	cli.MustValidate(logger, cfg.ValidateBot)

	loc := cfg.Location()
	logger.Info("Starting kopilka",
		"classifier_backend", cfg.ClassifierBackend,
		"timezone", loc.String(),
		"amqp_enabled", cfg.AMQPURL != "")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	cls, err := cli.InitClassifier(context.Background(), cfg, repo)
	if err != nil {
		logger.Error("Failed to initialize classifier", "error", err)
		os.Exit(1)
	}

	// A nil interface disables event publishing.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	} else {
		logger.Info("AMQP disabled, expense events will not be exported")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	api.Debug = cfg.TelegramDebug
	logger.Info("Authorized on Telegram", "bot", api.Self.UserName)

	reportCache := cache.NewLRUCache[core.MonthOverview](reportCacheSize, cfg.ReportCacheTTL)
	caches := cache.NewManager()
	caches.Register(reportCache)

	limiter := ratelimit.NewLimiter(ratelimit.Config{MessagesPerMinute: cfg.RateLimitPerMinute})
	defer limiter.Stop()

	p := parser.New(cfg.DefaultCurrency)
	budgets := services.NewBudgetService(repo, loc)
	reports := services.NewReportService(repo, reportCache, loc)
	expenses := services.NewExpenseService(services.ExpenseServiceConfig{
		Storage:       repo,
		Parser:        p,
		Classifier:    cls,
		Publisher:     publisher,
		Budgets:       budgets,
		Reports:       reports,
		WarnThreshold: cfg.ClassifierWarnThreshold,
	})
	reminders := services.NewReminderService(repo, bot.NewNotifier(api), loc)

	b, err := bot.New(bot.Config{
		API:             api,
		Users:           repo,
		Expenses:        expenses,
		Reports:         reports,
		Budgets:         budgets,
		Reminders:       reminders,
		Groups:          services.NewGroupService(repo),
		Limiter:         limiter,
		Parser:          p,
		Location:        loc,
		DefaultCurrency: cfg.DefaultCurrency,
		PollTimeout:     cfg.TelegramPollTimeout,
	})
	if err != nil {
		logger.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		lm := limiter.Metrics()
		bm := b.Metrics()
		logger.Info("Bot summary",
			"updates", bm.TotalUpdates,
			"avg_latency", bm.AverageLatency.String(),
			"rate_limited", lm.Rejected,
			"active_chats", lm.ActiveChats)
	})

	g, gctx := errgroup.WithContext(applog.WithLogger(ctx, logger))
	g.Go(func() error {
		err := b.Run(gctx)
		if err == nil && gctx.Err() == nil {
			err = errors.New("telegram update channel closed")
		}
		cli.LogDone(gctx, "bot", err)
		return err
	})
	g.Go(func() error {
		err := reminders.Run(gctx, cfg.ReminderInterval)
		cli.LogDone(gctx, "reminders", err)
		return err
	})
	g.Go(func() error {
		err := caches.Run(gctx, cacheCleanupInterval)
		cli.LogDone(gctx, "cache", err)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped with error", "error", err)
	}
	if ctx.Err() != nil {
		<-done
	}
	logger.Info("kopilka stopped")
}
