package bots

import (
	"context"
	"time"

	"github.com/edgard/botmanager/internal/webhook"
)

// AuditResult summarizes one webhook audit pass.
type AuditResult struct {
	Checked    int
	Mismatched []string
	// Misrouted bots have a webhook whose botId is missing or names another bot.
	Misrouted []string
	Failing   []string
	Errors    []string
}

// Audit compares the webhook the platform reports for every stored bot with
// the URL this service would register, and logs the differences. It never
// changes a webhook; restarting is left to the owner.
func (s *Service) Audit(ctx context.Context) (*AuditResult, error) {
	log := s.logger.With("operation", "audit")

	bots, err := s.store.ListBots(ctx)
	if err != nil {
		return nil, err
	}

	result := &AuditResult{}
	for _, bot := range bots {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++
		botLog := log.With("bot_id", bot.ID)

		client, err := s.newClient(bot.Token)
		if err != nil {
			botLog.WarnContext(ctx, "Failed to create platform client", "error", err)
			result.Errors = append(result.Errors, bot.ID)
			continue
		}

		info, err := client.WebhookInfo(ctx)
		if err != nil {
			botLog.WarnContext(ctx, "Failed to fetch webhook info", "error", err)
			result.Errors = append(result.Errors, bot.ID)
			continue
		}

		expected, err := webhook.BuildURL(s.webhookBase, bot.ID)
		if err != nil {
			return result, err
		}

		if info.URL != expected {
			botLog.WarnContext(ctx, "Webhook does not match the expected URL",
				"expected", expected, "actual", info.URL)
			result.Mismatched = append(result.Mismatched, bot.ID)

			if info.URL != "" {
				if routedTo, err := webhook.BotIDFromURL(info.URL); err != nil || routedTo != bot.ID {
					botLog.WarnContext(ctx, "Webhook delivers updates under another bot id",
						"webhook_url", info.URL, "routed_to", routedTo)
					result.Misrouted = append(result.Misrouted, bot.ID)
				}
			}
		}
		if info.LastErrorMessage != "" {
			botLog.WarnContext(ctx, "Platform reports webhook delivery errors",
				"last_error", info.LastErrorMessage,
				"last_error_at", time.Unix(info.LastErrorDate, 0).UTC(),
				"pending_updates", info.PendingUpdateCount)
			result.Failing = append(result.Failing, bot.ID)
		}
	}

	log.InfoContext(ctx, "Webhook audit finished",
		"checked", result.Checked,
		"mismatched", len(result.Mismatched),
		"misrouted", len(result.Misrouted),
		"failing", len(result.Failing),
		"errors", len(result.Errors))
	return result, nil
}
