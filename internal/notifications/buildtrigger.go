package notifications

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"chenil/internal/observability"
)

// BuildTrigger asks the static frontend to rebuild through a single webhook
// call. An unconfigured URL makes every call a silent no-op.
type BuildTrigger struct {
	url    string
	client *http.Client
}

// NewBuildTrigger returns a BuildTrigger posting to url.
func NewBuildTrigger(url string) *BuildTrigger {
	return &BuildTrigger{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 25 * time.Second},
	}
}

// Enabled reports whether a hook URL is configured.
func (t *BuildTrigger) Enabled() bool {
	return t.url != ""
}

// Fire posts to the build hook once. The response body is discarded; only
// the status code matters, and even a failure is just logged and counted.
func (t *BuildTrigger) Fire(ctx context.Context) error {
	if t.url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, strings.NewReader("{}"))
	if err != nil {
		observability.BuildTriggers.WithLabelValues("error").Inc()
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		observability.BuildTriggers.WithLabelValues("error").Inc()
		observability.GlobalLogger.ErrorContext(ctx, "Build hook call failed", "error", err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		observability.BuildTriggers.WithLabelValues("rejected").Inc()
		observability.GlobalLogger.WarnContext(ctx, "Build hook rejected", "status", resp.StatusCode)
		return nil
	}
	observability.BuildTriggers.WithLabelValues("ok").Inc()
	return nil
}
