package service

import (
	"context"
	"fmt"
	"time"
)

// eventTimeout bounds a single background publish.
const eventTimeout = 5 * time.Second

// background launches a background goroutine and recovers from panics inside
// the goroutine. It accepts an arbitrary function as a parameter and executes
// the function parameter inside the goroutine.
func (s *service) background(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				s.logger.PrintError(fmt.Errorf("%s", err), nil)
			}
		}()
		fn()
	}()
}

// publish runs fn in the background with its own timeout, detached from the
// request. Failures are logged only.
func (s *service) publish(eventType string, fn func(ctx context.Context) error) {
	s.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.PrintError(err, map[string]string{"event_type": eventType})
		}
	})
}
