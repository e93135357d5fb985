package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dealradar/internal/models"
)

// Config holds the Telegram delivery settings.
type Config struct {
	BotToken  string
	ChatID    string
	IsEnabled bool
}

type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	config  Config
	baseURL string
}

func NewService(config Config, logger *logrus.Logger) *Service {
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config:  config,
		baseURL: "https://api.telegram.org",
	}
}

// SendMessage sends an HTML-formatted message to the configured chat.
func (s *Service) SendMessage(message string) error {
	if !s.config.IsEnabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":                  s.config.ChatID,
		"text":                     message,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyListing formats a listing card, with a hot-deal badge when a
// verdict is present, and sends it to the configured chat.
func (s *Service) NotifyListing(l models.Listing, attrs models.ExtractedAttributes, verdict *models.Verdict) error {
	return s.SendMessage(FormatListing(l, attrs, verdict))
}

// FormatListing builds the HTML card for a listing. With a verdict the card
// leads with a badge explaining how far below the segment median the price
// sits.
func FormatListing(l models.Listing, attrs models.ExtractedAttributes, verdict *models.Verdict) string {
	title := l.Title
	if title == "" {
		title = "Untitled listing"
	}

	url := l.URL
	if url == "" {
		url = l.Link
	}
	if url == "" {
		url = l.DetailURL
	}

	var b strings.Builder

	if verdict != nil && attrs.PriceNumeric != nil {
		pctBelow := (1 - *attrs.PriceNumeric/verdict.MarketPrice) * 100
		b.WriteString(fmt.Sprintf("🔥 <b>Below market:</b> %.1f%% under the segment median (%.0f)\n",
			pctBelow, verdict.MarketPrice))
		b.WriteString(fmt.Sprintf("📊 %d samples • threshold %.0f\n", verdict.SampleCount, verdict.Threshold))
	}

	b.WriteString(fmt.Sprintf("<b>%s</b>\n", EscapeHTML(title)))

	line := make([]string, 0, 2)
	if l.PriceText != "" {
		line = append(line, EscapeHTML(l.PriceText))
	}
	if l.Location != "" {
		line = append(line, EscapeHTML(l.Location))
	}
	if len(line) > 0 {
		b.WriteString(strings.Join(line, " • "))
		b.WriteString("\n")
	}

	b.WriteString(url)
	return b.String()
}

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as
// markup.
func EscapeHTML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
