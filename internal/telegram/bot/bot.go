package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/futig/joke-flows/internal/config"
	"github.com/futig/joke-flows/internal/entity"
	"github.com/futig/joke-flows/internal/pkg/logger"
	"github.com/futig/joke-flows/internal/telegram/middleware"
	"github.com/futig/joke-flows/internal/telegram/render"
)

// API is the subset of *tgbotapi.BotAPI the bot uses
type API interface {
	middleware.Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// FlowRunner runs a registered flow by name
type FlowRunner interface {
	Run(ctx context.Context, name string, req entity.FlowRequest) (string, error)
	List() []entity.FlowInfo
}

// Bot represents the Telegram bot
type Bot struct {
	api         API
	cfg         *config.TelegramConfig
	flows       FlowRunner
	chatFlows   sync.Map // chat ID -> flow name chosen with /flow
	logger      *zap.Logger
	loggingMW   *middleware.LoggingMiddleware
	recoveryMW  *middleware.RecoveryMiddleware
	rateLimitMW *middleware.RateLimiterMiddleware
	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(api API, cfg *config.TelegramConfig, flows FlowRunner, logger *zap.Logger) *Bot {
	return &Bot{
		api:         api,
		cfg:         cfg,
		flows:       flows,
		logger:      logger,
		loggingMW:   middleware.NewLoggingMiddleware(logger),
		recoveryMW:  middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, api),
		stopChan:    make(chan struct{}),
	}
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	if !b.hasFlow(b.cfg.Flow) {
		return fmt.Errorf("default flow %q is not registered", b.cfg.Flow)
	}

	b.logger.Info("starting telegram bot", zap.String("flow", b.cfg.Flow))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.rateLimitMW.Run(ctx)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(ctx, u)
			}(update)
		}
	}
}

func (b *Bot) handleUpdateWithMiddleware(ctx context.Context, update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, func(u3 tgbotapi.Update) {
				b.handleUpdate(ctx, u3)
			})
		})
	})
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		return
	}

	ctx = logger.AddFields(ctx, zap.Int64("chat_id", message.Chat.ID))

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}
	b.handleText(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start":
		b.reply(ctx, chatID, render.MsgWelcome)
	case "help":
		b.reply(ctx, chatID, render.MsgHelp)
	case "flows":
		b.reply(ctx, chatID, render.Flows(b.flowNames(), b.flowFor(chatID)))
	case "flow":
		name := strings.TrimSpace(message.CommandArguments())
		if !b.hasFlow(name) {
			b.reply(ctx, chatID, render.ErrUnknownFlow)
			return
		}
		b.chatFlows.Store(chatID, name)
		b.reply(ctx, chatID, render.MsgFlowSwitched+name)
	default:
		b.reply(ctx, chatID, render.MsgUnknownCmd)
	}
}

// handleText runs the chat's flow with the message as the topic
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.reply(ctx, chatID, render.MsgEmptyTopic)
		return
	}

	flowName := b.flowFor(chatID)
	ctx = logger.AddFields(logger.WithAction(ctx, "TelegramFlow"), zap.String("flow", flowName))

	out, err := b.flows.Run(ctx, flowName, entity.NewFlowRequest(text))
	if err != nil {
		ctxzap.Error(ctx, "flow failed", zap.String("kind", string(entity.KindOf(err))), zap.Error(err))
		b.reply(ctx, chatID, render.FlowError(err))
		return
	}

	for _, part := range render.Split(out) {
		b.reply(ctx, chatID, part)
	}
}

// reply sends a text message, retrying transient delivery failures
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)

	opts := append(b.cfg.Retry.ToRetryOptions(ctx), retry.RetryIf(retryableSend))
	err := retry.Do(func() error {
		_, err := b.api.Send(msg)
		return err
	}, opts...)
	if err != nil {
		ctxzap.Error(ctx, "failed to send message", zap.Error(err))
	}
}

// retryableSend reports whether a failed send may succeed later.
// Telegram rejects bad requests and blocked chats permanently.
func retryableSend(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

func (b *Bot) flowFor(chatID int64) string {
	if v, ok := b.chatFlows.Load(chatID); ok {
		return v.(string)
	}
	return b.cfg.Flow
}

func (b *Bot) flowNames() []string {
	infos := b.flows.List()
	names := make([]string, 0, len(infos))
	for _, f := range infos {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func (b *Bot) hasFlow(name string) bool {
	for _, n := range b.flowNames() {
		if n == name {
			return true
		}
	}
	return false
}
