// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across the source client.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/journal-club/internal/logging"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// transient failures. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const defaultMaxAttempts = 3

// ErrRetriesExhausted is wrapped by DoWithRetry when every attempt failed
// with a transport error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// IsTransientStatus reports whether an HTTP status is worth retrying:
// 429 Too Many Requests and every 5xx.
func IsTransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// DoWithRetry executes an HTTP request, retrying transport errors (including
// timeouts), HTTP 429 and HTTP 5xx with exponential backoff. The delay
// starts at RetryBaseDelay and doubles each attempt: 1 s, 2 s, 4 s, ...
//
// maxAttempts bounds the total number of requests; 0 selects the default
// (3). On a retried response the body is drained and closed before
// sleeping. If the context is cancelled during a backoff wait the function
// returns ctx.Err(). After exhausting attempts the last transient response
// is returned as-is so the caller can inspect it; if the last attempt was a
// transport error, that error is returned wrapped with ErrRetriesExhausted.
// A nil log discards retry diagnostics.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxAttempts int, log logrus.FieldLogger) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if log == nil {
		log = logging.Discard()
	}

	for attempt := 1; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if attempt >= maxAttempts {
				return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrRetriesExhausted, attempt, err)
			}
			log.WithError(err).WithField("attempt", attempt).Warn("request failed, retrying")
		} else {
			if !IsTransientStatus(resp.StatusCode) {
				return resp, nil
			}
			// Exhausted attempts: hand the transient response back.
			if attempt >= maxAttempts {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.WithFields(logrus.Fields{
				"status":  resp.StatusCode,
				"attempt": attempt,
			}).Warn("transient HTTP status, retrying")
		}

		backoff := time.Duration(math.Pow(2, float64(attempt-1))) * RetryBaseDelay
		log.WithField("backoff", backoff).Debugf("waiting before attempt %d/%d", attempt+1, maxAttempts)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
