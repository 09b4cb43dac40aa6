package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

const (
	discordEmbedColor     = 0x5865F2
	discordDescriptionMax = 4096
	discordFieldMax       = 1024
)

var errBadWebhookURL = errors.New("discord webhook url must look like https://discord.com/api/webhooks/<id>/<token>")

// DiscordWebhook posts an embed per message to a Discord channel webhook.
type DiscordWebhook struct {
	id      string
	token   string
	session *discordgo.Session
}

func NewDiscordWebhook(rawURL string, timeout time.Duration) (*DiscordWebhook, error) {
	id, token, err := parseWebhookURL(rawURL)
	if err != nil {
		return nil, err
	}
	// webhooks authenticate with the token in the URL, not a bot token
	s, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	s.Client = &http.Client{Timeout: timeout}
	s.MaxRestRetries = 0
	return &DiscordWebhook{id: id, token: token, session: s}, nil
}

func (d *DiscordWebhook) Name() string { return "discord" }

func (d *DiscordWebhook) Notify(ctx context.Context, msg types.ContactMessage) error {
	_, err := d.session.WebhookExecute(d.id, d.token, false, webhookParams(Summarize(msg)), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func webhookParams(s Summary) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Username: "Portfolio",
		Embeds: []*discordgo.MessageEmbed{{
			Title:       truncate(s.MailSubject(), 256),
			Description: truncate(s.Message, discordDescriptionMax),
			Color:       discordEmbedColor,
			Timestamp:   s.CreatedAt,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Name", Value: truncate(s.Name, discordFieldMax), Inline: true},
				{Name: "Email", Value: truncate(s.Email, discordFieldMax), Inline: true},
				{Name: "Subject", Value: truncate(s.Subject, discordFieldMax)},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("message #%d", s.ID)},
		}},
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", "", errBadWebhookURL
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p != "webhooks" || i+2 >= len(parts) {
			continue
		}
		if parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", errBadWebhookURL
}
