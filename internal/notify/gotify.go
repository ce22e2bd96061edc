// Package notify pushes run outcomes to a Gotify server. Delivery is best
// effort: failures are logged and never propagate into the run result.
package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Notifier posts messages to a Gotify endpoint. The zero value and a
// Notifier built without a URL or token are inert no-ops.
type Notifier struct {
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
}

func New(rawURL, token string, logger *slog.Logger) *Notifier {
	return &Notifier{
		url:    strings.TrimRight(rawURL, "/"),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send delivers one message. Send never returns an error; delivery
// failures are logged and otherwise dropped.
func (n *Notifier) Send(ctx context.Context, title, message string) {
	if n.url == "" || n.token == "" {
		n.logger.Info("notification endpoint not configured, nothing sent")
		return
	}

	endpoint := n.url + "/message?token=" + url.QueryEscape(n.token)
	form := url.Values{
		"title":   {title},
		"message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		n.logger.Error("build notification request", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("send notification", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		n.logger.Error("notification rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return
	}
	n.logger.Debug("notification sent", slog.Int("status", resp.StatusCode))
}
