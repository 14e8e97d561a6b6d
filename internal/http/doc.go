// Package http provides HTTP handlers and middleware for the lab scheduler API.
//
// The router exposes the following endpoints:
//   - GET /zones, POST /zones, GET /zones/{id}, PUT /zones/{id}, DELETE /zones/{id}:
//     zone catalog endpoints exchanging the `zoneDTO` payload defined in
//     zone_handler.go. Listing is open to any actor while mutations require the
//     manage_zones permission.
//   - GET /zones/{id}/availability?date=YYYY-MM-DD&slot_minutes=N: the availability
//     grid for one day, a list of fixed-size slots each marked available or not.
//   - GET /zones/{id}/reservations?from=...&to=...: reservations overlapping a
//     window. Members only see their own entries.
//   - POST /bookings: creates a normal-priority booking. Conflicts answer
//     409 SLOT_UNAVAILABLE with the blocking time windows.
//   - POST /events: creates a lab event. High-priority events atomically cancel
//     conflicting normal-priority reservations and report them in the response.
//   - GET /events/{id}/cancellations: the audit trail of a cascade.
//   - PUT /reservations/{id}: moves a reservation; requires expected_version.
//   - POST /reservations/{id}/cancel: cancels a reservation.
//   - GET /healthz and GET /metrics: liveness and Prometheus scrape endpoints,
//     mounted outside the actor middleware.
//
// Every API request carries the acting user in the X-Actor-Id and X-Actor-Role
// headers; authentication itself happens at the gateway in front of this
// service. Request/response DTOs live alongside their respective handlers so
// tests and documentation share the same ground truth.
package http
