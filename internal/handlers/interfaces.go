package handlers

import (
	"context"

	"socialguard/internal/dispatch"
	"socialguard/internal/visitors"
)

type Dispatcher interface {
	DispatchAll(ctx context.Context, req dispatch.Request) (*dispatch.Report, error)
}

type VisitorNotifier interface {
	Notify(v visitors.Visit)
}
