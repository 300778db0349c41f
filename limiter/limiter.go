// Package limiter paces requests to a rate-limited web service. It keeps one
// "next request at" time, which every request pushes forward and which a
// Retry-After response can push further. With a filename, that time survives
// restarts.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// defaultRetryAfter is used when a throttled response doesn't say how long
// to wait.
const defaultRetryAfter = 60 * time.Second

func New(filename string, delay time.Duration, log hclog.Logger) *Limiter {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Limiter{
		filename: filename,
		delay:    delay,
		log:      log,
	}
}

type Limiter struct {
	filename string
	delay    time.Duration
	log      hclog.Logger

	mu     sync.Mutex
	nextAt time.Time
}

// Load restores a persisted next-request time, if there is one.
func (lim *Limiter) Load() error {
	if lim.filename == "" {
		return nil
	}
	bs, err := os.ReadFile(lim.filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error reading limiter file: %w", err)
	}

	nextAt, err := time.Parse(time.UnixDate, strings.TrimSpace(string(bs)))
	if err != nil {
		return fmt.Errorf("error parsing limiter file: %w", err)
	}

	lim.mu.Lock()
	defer lim.mu.Unlock()
	lim.nextAt = nextAt
	return nil
}

// Wait blocks until the next request may be made, then reserves the slot
// after it. Concurrent callers are spaced out by the configured delay.
func (lim *Limiter) Wait(ctx context.Context) error {
	lim.mu.Lock()
	now := time.Now()
	at := lim.nextAt
	if at.Before(now) {
		at = now
	}
	lim.nextAt = at.Add(lim.delay)
	lim.mu.Unlock()

	dur := time.Until(at)
	if dur <= 0 {
		return nil
	}
	if dur > time.Second {
		lim.log.Info("waiting for rate limit",
			"for", dur.Truncate(time.Second),
			"until", at.Format(time.StampMilli))
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("canceled: %w", ctx.Err())
	case <-timer.C:
	}

	if lim.filename != "" {
		if err := os.Remove(lim.filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error removing limiter file: %w", err)
		}
	}
	return nil
}

// SetNextAt holds off requests as told by a Retry-After header value, which
// may be a number of seconds or an http date. An empty value means a minute.
func (lim *Limiter) SetNextAt(retryAfter string) error {
	wait := defaultRetryAfter
	if retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			wait = time.Duration(seconds) * time.Second
		} else if at, err := http.ParseTime(retryAfter); err == nil {
			wait = time.Until(at)
		} else {
			return fmt.Errorf("error parsing retry-after '%s'", retryAfter)
		}
	}
	nextAt := time.Now().Add(wait + time.Second)

	lim.mu.Lock()
	if nextAt.After(lim.nextAt) {
		lim.nextAt = nextAt
	}
	nextAt = lim.nextAt
	lim.mu.Unlock()

	if lim.filename == "" {
		return nil
	}
	if err := os.WriteFile(lim.filename, []byte(nextAt.Format(time.UnixDate)), 0o666); err != nil {
		return fmt.Errorf("error writing limiter file: %w", err)
	}
	return nil
}

// NextAt is the earliest time the next request may be made.
func (lim *Limiter) NextAt() time.Time {
	lim.mu.Lock()
	defer lim.mu.Unlock()
	return lim.nextAt
}
