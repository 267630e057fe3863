package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"country-color-map/backend/models"
	"country-color-map/backend/system"
)

// WebhookService posts color changes to a Discord webhook
type WebhookService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
	pending    sync.WaitGroup
}

// DiscordEmbed represents a Discord embed object
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField represents a field in a Discord embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordEmbedFooter represents a footer in a Discord embed
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordWebhookPayload represents a Discord webhook message
type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// NewWebhookService creates a new WebhookService
func NewWebhookService() *WebhookService {
	return &WebhookService{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetWebhookURL sets the Discord webhook URL
func (w *WebhookService) SetWebhookURL(url string) {
	w.webhookURL = url
	w.enabled = url != ""
}

// IsEnabled returns whether the webhook is enabled
func (w *WebhookService) IsEnabled() bool {
	return w.enabled && w.webhookURL != ""
}

// Embed colors, the same values as the map palette
const (
	ColorRed    = 0xFF0000
	ColorGreen  = 0x00FF00
	ColorYellow = 0xFFFF00
	ColorGray   = 0x888888
)

var embedColors = map[models.ColorName]int{
	models.Red:    ColorRed,
	models.Green:  ColorGreen,
	models.Yellow: ColorYellow,
}

// ColorChanged implements ChangeObserver. Delivery happens in the background.
func (w *WebhookService) ColorChanged(change models.ColorChange) {
	if !w.IsEnabled() {
		return
	}
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		if err := w.SendColorChange(change); err != nil {
			system.Warn("Discord notification failed: %v", err)
		}
	}()
}

// Wait blocks until in-flight notifications are done
func (w *WebhookService) Wait() {
	w.pending.Wait()
}

// SendColorChange describes one store mutation as an embed
func (w *WebhookService) SendColorChange(change models.ColorChange) error {
	if !w.IsEnabled() {
		return nil
	}

	embed := DiscordEmbed{
		Color: ColorGray,
		Footer: &DiscordEmbedFooter{
			Text: "Country Color Map",
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	switch change.Action {
	case models.ActionSet:
		embed.Title = "Country colored"
		embed.Description = fmt.Sprintf("**%s** is now %s", change.Country, change.ColorName)
		embed.Color = embedColors[change.ColorName]
	case models.ActionRemove:
		embed.Title = "Color cleared"
		embed.Description = fmt.Sprintf("**%s** no longer has a color", change.Country)
	case models.ActionClear:
		embed.Title = "All colors cleared"
		embed.Description = "The map has been reset"
	default:
		embed.Title = "Colors replaced"
		embed.Description = fmt.Sprintf("%s loaded %d country colors", change.Action, change.Count)
	}

	return w.sendEmbed(embed)
}

// SendTestAlert sends a test notification to verify webhook connectivity
func (w *WebhookService) SendTestAlert() error {
	if !w.IsEnabled() {
		return fmt.Errorf("webhook not configured")
	}

	embed := DiscordEmbed{
		Title:       "Webhook Test",
		Description: "Discord webhook is configured correctly!",
		Color:       ColorGreen,
		Fields: []DiscordEmbedField{
			{Name: "Server Time", Value: time.Now().Format("2006-01-02 15:04:05"), Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// sendEmbed sends a Discord embed message
func (w *WebhookService) sendEmbed(embed DiscordEmbed) error {
	payload := DiscordWebhookPayload{
		Username: "Country Color Map",
		Embeds:   []DiscordEmbed{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest("POST", w.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}
	return nil
}
