// Package export submits completed quiz runs to an external webhook, one
// form-encoded POST per run. The sink appends a row per submission; delivery
// is best-effort and never retried here.
package export

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Exporter posts completed answer sets to a webhook URL.
type Exporter struct {
	url    string
	client *http.Client
}

// New creates an exporter for the given webhook URL.
func New(webhookURL string) (*Exporter, error) {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid export URL: %w", err)
	}
	return &Exporter{
		url:    webhookURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Submit posts one completed run. The payload carries the participant key as
// PhoneNumber and each answer under its 1-indexed question number.
func (e *Exporter) Submit(ctx context.Context, key string, answers []string) error {
	form := url.Values{}
	form.Set("PhoneNumber", key)
	for i, a := range answers {
		form.Set(strconv.Itoa(i+1), a)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit export for %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("export webhook returned %s for %s", resp.Status, key)
	}
	return nil
}
