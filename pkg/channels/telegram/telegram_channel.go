package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"muse/pkg/api"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials and routing target for the
// Telegram Bot API.
type TelegramConfig struct {
	Token  string `json:"token"`   // The secret BOT API string provided by @BotFather
	ChatID int64  `json:"chat_id"` // Chat or group that receives broadcast ideas
}

// TelegramChannel is the production implementation of api.Channel for the
// Telegram platform. It broadcasts newly generated ideas to a configured
// chat and receives slash commands via long polling.
type TelegramChannel struct {
	config       TelegramConfig     // Auth credentials and target chat
	bot          *tgbotapi.BotAPI   // Underlying Telegram SDK client
	messageLimit int                // Maximum character count per single message bubble
	stopCtx      context.Context    // Context used to forcibly abort the long-polling HTTP request
	stopCancel   context.CancelFunc // Function to trigger the abort
}

func NewTelegramChannel(cfg TelegramConfig, msgLimit int) (api.Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Create a dedicated HTTP client for the bot so we can forcefully close it on reload
	// By tying the DialContext to our stopCtx, active long-polling requests will be
	// instantly aborted when Stop() is called, preventing the 409 Conflict.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHttpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				// We wrap the context with our stopCtx so we can arbitrarily kill the connection
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHttpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		stopCtx:      ctx,
		stopCancel:   cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
// Incoming slash commands (e.g., "/idea") are parsed and routed to the
// gateway. Non-command messages are ignored; the bot only publishes.
func (t *TelegramChannel) Start(ctx api.ChannelContext) error {
	offset := 0

	// Process updates in background with manual loop to allow Context cancellation
	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return // Gracefully exit on shutdown
			default:
			}

			// Use the native GetUpdates instead of GetUpdatesChan so we have
			// control over the offset and the loop can be aborted by killing
			// the underlying connection via stopCtx.
			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return // Ignore error if we are shutting down
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1

					if update.Message == nil || update.Message.From == nil {
						continue
					}

					cmd := parseCommand(update.Message.Text)
					if cmd == nil {
						continue
					}

					cmd.Session = api.SessionContext{
						ChannelID: "telegram",
						UserID:    strconv.FormatInt(update.Message.From.ID, 10),
						ChatID:    strconv.FormatInt(update.Message.Chat.ID, 10),
						Username:  update.Message.From.UserName,
					}
					ctx.OnCommand(t.ID(), cmd)
				}
			}
		}
	}()

	return nil
}

// parseCommand converts a raw Telegram message into a Command, or nil when
// the message is not a slash command. Strips the "@BotName" suffix that
// Telegram appends in group chats.
func parseCommand(text string) *api.Command {
	if !strings.HasPrefix(text, "/") {
		return nil
	}

	name, args, _ := strings.Cut(text[1:], " ")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return nil
	}

	return &api.Command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel() // Cancel our custom long-polling loop immediately

	// Forcefully close lingering HTTP connections
	// Note: HTTP/1.1 connections stuck in Read won't abort via CloseIdleConnections().
	// But it will clear the pool.
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}

// Broadcast publishes a new idea to the configured chat.
func (t *TelegramChannel) Broadcast(message string) error {
	if t.config.ChatID == 0 {
		return fmt.Errorf("telegram chat_id not configured")
	}
	return t.sendChunked(t.config.ChatID, message)
}

func (t *TelegramChannel) Send(session api.SessionContext, message string) error {
	// Telegram Chat ID must be int64
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}
	return t.sendChunked(chatID, message)
}

// sendChunked delivers a message, splitting it rune-safe into multiple
// bubbles when it exceeds the platform limit.
func (t *TelegramChannel) sendChunked(chatID int64, message string) error {
	for _, chunk := range splitRunes(message, t.messageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
	}
	return nil
}

// splitRunes cuts a message into chunks of at most limit runes. Splitting by
// runes rather than bytes keeps multi-byte characters intact.
func splitRunes(message string, limit int) []string {
	msgRunes := []rune(message)
	totalLen := len(msgRunes)

	if limit <= 0 || totalLen <= limit {
		return []string{message}
	}

	var chunks []string
	for i := 0; i < totalLen; i += limit {
		end := i + limit
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(msgRunes[i:end]))
	}
	return chunks
}
