// Package telegram sends optional run notifications via the Telegram
// Bot API.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a Telegram client for the given bot token and chat.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendRunSummary notifies the chat that a run completed, with the global
// aggregates.
func (c *Client) SendRunSummary(team int, eventKey string, matchCount int, g models.GlobalSummary) error {
	return c.sendMarkdownV2(formatRunSummary(team, eventKey, matchCount, g))
}

// SendError notifies the chat that a run failed.
func (c *Client) SendError(team int, eventKey string, runErr error) error {
	text := fmt.Sprintf("⚠️ *Telemetry run failed* for frc%d at %s\n`%s`",
		team, escapeMarkdownV2(eventKey), escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// formatRunSummary formats the global aggregates into a MarkdownV2 message.
func formatRunSummary(team int, eventKey string, matchCount int, g models.GlobalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 *Telemetry summary* for frc%d at %s\n", team, escapeMarkdownV2(eventKey))
	fmt.Fprintf(&b, "📊 %d matches with usable telemetry\n\n", matchCount)
	fmt.Fprintf(&b, "🏎 Top speed: *%s* ft/s \\(avg of match bests: %s\\)\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", g.MaxSpeed)),
		escapeMarkdownV2(fmt.Sprintf("%.2f", g.AvgMaxSpeed)))
	fmt.Fprintf(&b, "🚀 Top acceleration: *%s* ft/s²\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", g.MaxAcceleration)))
	fmt.Fprintf(&b, "🛑 Hardest braking: *%s* ft/s²\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", g.MaxBraking)))
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
