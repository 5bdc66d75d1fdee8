package security

import (
	"context"
	"net/http"
)

// Outcome is the structured result a handler declares for the audit
// interceptor. It replaces response-body sniffing: the interceptor emits
// whatever the handler declared, independent of user-facing wording.
type Outcome struct {
	Event   string // event type tag
	Level   string // severity level
	Risk    string // risk level
	UserID  string // acting identity, if known
	Success bool
}

type outcomeKey struct{}

// outcomeHolder is installed by the interceptor so handlers further down
// the chain can declare an outcome without owning the response writer.
type outcomeHolder struct {
	outcome *Outcome
}

// WithOutcomeHolder installs an empty outcome slot in the context.
func WithOutcomeHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, outcomeKey{}, &outcomeHolder{})
}

// SetOutcome declares the security outcome of the current request.
// A no-op when no interceptor is installed on the route.
func SetOutcome(r *http.Request, outcome Outcome) {
	holder, ok := r.Context().Value(outcomeKey{}).(*outcomeHolder)
	if !ok {
		return
	}
	holder.outcome = &outcome
}

// OutcomeFromContext returns the declared outcome, if any.
func OutcomeFromContext(ctx context.Context) *Outcome {
	holder, ok := ctx.Value(outcomeKey{}).(*outcomeHolder)
	if !ok {
		return nil
	}
	return holder.outcome
}
