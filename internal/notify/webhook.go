// Package notify delivers run summaries to a configured webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/integrity-cli/internal/config"
	"github.com/sells-group/integrity-cli/internal/model"
)

// Payload is the webhook body for one completed run: the headline numbers
// plus the worst offending fields.
type Payload struct {
	RunAt         time.Time          `json:"run_at"`
	TargetName    string             `json:"target_name"`
	SourceName    string             `json:"source_name"`
	TotalRecords  int                `json:"total_records"`
	MatchRate     float64            `json:"match_rate"`
	QualityScore  float64            `json:"quality_score"`
	Grade         string             `json:"grade"`
	TopMismatched []model.FieldStats `json:"top_mismatched,omitempty"`
	Insights      []model.Insight    `json:"insights,omitempty"`
}

// PayloadFor builds the webhook payload from a run summary.
func PayloadFor(s *model.Summary) Payload {
	return Payload{
		RunAt:         s.RunAt,
		TargetName:    s.TargetName,
		SourceName:    s.SourceName,
		TotalRecords:  s.Matched + s.SourceOnly + s.TargetOnly,
		MatchRate:     s.MatchRate,
		QualityScore:  s.QualityScore,
		Grade:         s.Grade,
		TopMismatched: s.TopMismatched(5),
		Insights:      s.Insights,
	}
}

// Notifier posts run summaries to a webhook URL with rate limiting and
// bounded retries.
type Notifier struct {
	cfg     config.NotifyConfig
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Notifier from notify config. Zero-value timeout and rate
// fall back to 10s and 6 posts per minute.
func New(cfg config.NotifyConfig) *Notifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rpm := cfg.RatePerMinute
	if rpm <= 0 {
		rpm = 6
	}
	return &Notifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rpm/60), 1),
	}
}

// Send delivers the run summary to the webhook. It is a no-op when no URL
// is configured, or when min_score is set and the run scored at or above it.
func (n *Notifier) Send(ctx context.Context, s *model.Summary) error {
	if n.cfg.WebhookURL == "" {
		return nil
	}
	if n.cfg.MinScore > 0 && s.QualityScore >= n.cfg.MinScore {
		zap.L().Debug("notify: run scored above threshold, skipping",
			zap.Float64("quality_score", s.QualityScore),
			zap.Float64("min_score", n.cfg.MinScore),
		)
		return nil
	}

	payload, err := json.Marshal(PayloadFor(s))
	if err != nil {
		return eris.Wrap(err, "notify: marshal payload")
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notify: rate limit wait")
	}

	var lastErr error
	for attempt := 0; attempt <= n.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "notify: retry wait")
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		if lastErr = n.post(ctx, payload); lastErr == nil {
			zap.L().Info("notify: run summary sent",
				zap.String("target", s.TargetName),
				zap.String("grade", s.Grade),
			)
			return nil
		}
	}
	return eris.Wrapf(lastErr, "notify: webhook failed after %d attempt(s)", n.cfg.MaxRetries+1)
}

func (n *Notifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
