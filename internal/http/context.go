package http

import (
	"context"

	"github.com/example/lab-scheduler/internal/application"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	zoneIDContextKey        contextKey = "zone_id"
	reservationIDContextKey contextKey = "reservation_id"
)

// ContextWithPrincipal returns a derived context containing the acting principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the acting principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithZoneID injects the zone identifier resolved from the request path.
func ContextWithZoneID(ctx context.Context, zoneID string) context.Context {
	return context.WithValue(ctx, zoneIDContextKey, zoneID)
}

// ZoneIDFromContext extracts a zone identifier previously associated with the context.
func ZoneIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(zoneIDContextKey).(string)
	return id, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, reservationID string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, reservationID)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}
