package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/notify"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

var (
	toFlag      = flag.String("to", "", "Override NOTIFY_TO recipient(s)")
	timeoutFlag = flag.Duration("timeout", 30*time.Second, "Overall send timeout")
	discordFlag = flag.Bool("discord", false, "Also post to DISCORD_WEBHOOK_URL")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	to := pickFirst(*toFlag, cfg.NotifyTo)
	channels := []notify.Channel{notify.NewMailer(cfg.SMTP, to)}
	if *discordFlag {
		hook, err := notify.NewDiscordWebhook(cfg.DiscordWebhookURL, *timeoutFlag)
		if err != nil {
			log.Fatalf("discord: %v", err)
		}
		channels = append(channels, hook)
	}

	msg := types.ContactMessage{
		Name:      "Smoke Test",
		Email:     pickFirst(cfg.SMTP.From, "smoketest@example.com"),
		Subject:   "Notification smoke test",
		Message:   "This is a test notification sent by mail-smoketest.",
		CreatedAt: types.FormatTimestamp(time.Now()),
	}

	failed := false
	for _, ch := range channels {
		if e, ok := ch.(interface{ Enabled() bool }); ok && !e.Enabled() {
			fmt.Printf("%s ⏭  not configured (need SMTP_HOST, SMTP_FROM and a recipient)\n", ch.Name())
			continue
		}
		if err := send(ch, msg); err != nil {
			failed = true
			fmt.Printf("%s ❌ %v\n", ch.Name(), err)
		}
	}
	if failed {
		log.Fatal("smoke test failed")
	}
}

func send(ch notify.Channel, msg types.ContactMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	start := time.Now()
	if err := ch.Notify(ctx, msg); err != nil {
		return err
	}
	fmt.Printf("%s ✅ (%.1fs)\n", ch.Name(), time.Since(start).Seconds())
	return nil
}

func pickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
