package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"corvid-labs/vigil/pkg/engine"
)

// slackMaxRules caps the failed rules listed in a Slack message.
const slackMaxRules = 5

// SlackNotifier posts a run summary to a Slack incoming webhook using
// Block Kit blocks.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack notifier. timeout bounds the webhook
// POST; channel optionally overrides the webhook's default channel.
func NewSlackNotifier(webhookURL, channel string, timeout time.Duration) *SlackNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: timeout},
	}
}

// Name implements Notifier.
func (s *SlackNotifier) Name() string { return "slack" }

type slackMessage struct {
	Channel string       `json:"channel,omitempty"`
	Text    string       `json:"text"`
	Blocks  []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the summary message.
func (s *SlackNotifier) Notify(ctx context.Context, run *engine.RunResult) error {
	payload, err := json.Marshal(s.message(run))
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// message builds the Block Kit payload for a run.
func (s *SlackNotifier) message(run *engine.RunResult) *slackMessage {
	sum := run.Summary
	headline := fmt.Sprintf("Compliance scan found %d violations (%d rules failed, %d errored)",
		sum.Violations, sum.FailedRules, sum.ErroredRules)

	msg := &slackMessage{
		Channel: s.channel,
		Text:    headline,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: "Vigil compliance scan"}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf(
				"*Run* `%s`\n*Rules:* %d total, %d passed, %d failed, %d errored\n*Violations:* %d",
				run.ID, sum.TotalRules, sum.PassedRules, sum.FailedRules, sum.ErroredRules, sum.Violations)}},
		},
	}

	for _, res := range failedRules(run, slackMaxRules) {
		line := fmt.Sprintf("*%s* [%s]", res.RuleName, res.Severity)
		if res.Status == engine.StatusError {
			line += fmt.Sprintf(" - error: %s", res.Err)
		} else {
			line += fmt.Sprintf(" - %d of %d rows violated", res.ViolationCount, res.Considered)
		}
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: line},
		})
	}

	if extra := sum.FailedRules + sum.ErroredRules - slackMaxRules; extra > 0 {
		msg.Blocks = append(msg.Blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("_... and %d more failed rules in the full report._", extra)},
		})
	}

	return msg
}
