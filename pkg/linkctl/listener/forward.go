package listener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/telekom/linkctl/pkg/metrics"
	"github.com/telekom/linkctl/pkg/version"
)

// ErrNoInstance means no listener is running for the socket.
var ErrNoInstance = errors.New("no running listener")

const forwardTimeout = 5 * time.Second

// HTTPError is a non-2xx answer from the listener.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("listener refused activation (%d): %s", e.StatusCode, e.Message)
}

// Forward hands raw to the listener serving socketPath. It makes exactly one
// attempt; the caller decides what to do when no listener is running.
func Forward(ctx context.Context, socketPath, raw string) error {
	if _, err := os.Stat(socketPath); errors.Is(err, os.ErrNotExist) {
		metrics.ForwardRequests.WithLabelValues("no_instance").Inc()
		return ErrNoInstance
	}

	client := resty.New().
		SetTransport(&http.Transport{DialContext: socketDialer(socketPath)}).
		SetBaseURL("http://linkctl").
		SetTimeout(forwardTimeout).
		SetRetryCount(0).
		SetHeader("User-Agent", version.UserAgent())

	resp, err := client.R().
		SetContext(ctx).
		SetBody(activationRequest{URI: raw}).
		SetError(&apiError{}).
		Post("/v1/activations")
	if err != nil {
		if isNoInstance(err) {
			metrics.ForwardRequests.WithLabelValues("no_instance").Inc()
			return ErrNoInstance
		}
		metrics.ForwardRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to forward activation: %w", err)
	}
	if resp.IsError() {
		metrics.ForwardRequests.WithLabelValues("rejected").Inc()
		msg := resp.Status()
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			msg = e.Error
		}
		return &HTTPError{StatusCode: resp.StatusCode(), Message: msg}
	}
	metrics.ForwardRequests.WithLabelValues("accepted").Inc()
	return nil
}
