package service

import (
	"context"
	"log"
	"time"
)

const (
	backgroundAttempts   = 3
	backgroundBaseDelay  = 2 * time.Second
	backgroundMaxDelay   = 30 * time.Second
	backgroundOpTimeout  = 10 * time.Second
)

// dispatchAsync runs fn on its own goroutine, detached from the request
// lifetime, with bounded retries and capped exponential backoff. Failures
// are logged and never surface to the caller.
func dispatchAsync(name string, fn func(ctx context.Context) error) {
	go func() {
		delay := backgroundBaseDelay
		for attempt := 1; attempt <= backgroundAttempts; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), backgroundOpTimeout)
			err := fn(ctx)
			cancel()
			if err == nil {
				return
			}
			if attempt == backgroundAttempts {
				log.Printf("error: %s failed after %d attempts: %v", name, attempt, err)
				return
			}
			log.Printf("warn: %s failed (attempt %d): %v", name, attempt, err)
			time.Sleep(delay)
			delay *= 2
			if delay > backgroundMaxDelay {
				delay = backgroundMaxDelay
			}
		}
	}()
}
