// Package page abstracts the scheduling portal. The engine never sees
// concrete page structure, only these interfaces; Portal is the HTTP
// implementation and tests substitute fakes.
package page

import (
	"context"

	"github.com/ErraticFox/atov/internal/shift"
)

// OfferSource yields the candidate offers currently rendered on a page, in
// presentation order. Reload discards the current snapshot and renders the
// page again.
type OfferSource interface {
	Offers(ctx context.Context) ([]shift.Offer, error)
	Reload(ctx context.Context) error
}

// AcceptSurface drives the acceptance flow on a page: clicking an offer,
// the confirmation dialog that follows, and the result text it settles on.
type AcceptSurface interface {
	// Accept activates an offer's accept handle.
	Accept(ctx context.Context, handle string) error

	// ConfirmationVisible reports whether the confirmation control has
	// appeared; Confirm clicks it.
	ConfirmationVisible(ctx context.Context) (bool, error)
	Confirm(ctx context.Context) error

	// ResultText returns whatever the confirmation surface currently says.
	// Empty while the result is still pending.
	ResultText(ctx context.Context) (string, error)
}

// SessionSurface exposes the session-timeout prompt the portal throws up on
// idle sessions. The guard watches it independently of the main flow.
type SessionSurface interface {
	SessionPromptVisible(ctx context.Context) (bool, error)
	DismissSessionPrompt(ctx context.Context) error
}

// Page is the full portal contract for one page type.
type Page interface {
	OfferSource
	AcceptSurface
	SessionSurface
}
