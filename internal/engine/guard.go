package engine

import (
	"context"
	"log"
	"time"
)

// SessionGuard watches for the portal's session-timeout prompt and
// dismisses it so the authenticated session outlives idle stretches. It
// runs for the life of the page regardless of the running flag and never
// takes the engine lock: it must not block, or be blocked by, an in-flight
// click sequence.
func (e *Engine) SessionGuard(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		visible, err := e.Page.SessionPromptVisible(ctx)
		if err != nil {
			log.Printf("guard(%s): %v", e.PageType, err)
			continue
		}
		if !visible {
			continue
		}
		log.Printf("guard(%s): dismissing session-timeout prompt", e.PageType)
		if err := e.Page.DismissSessionPrompt(ctx); err != nil {
			log.Printf("guard(%s): dismiss: %v", e.PageType, err)
		}
	}
}
