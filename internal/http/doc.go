// Package http provides the HTTP handlers and middleware for the booking
// API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     The token is returned in the body and surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's session and clears the
//     cookie. Returns 204 No Content.
//   - GET /bookings: lists bookings with optional date, location, from, to
//     and upcoming filters. Public; no session required. Responses include
//     conflict warnings among the listed bookings.
//   - POST /bookings: creates a booking (session required). When the
//     candidate overlaps existing bookings and the request carries no
//     decision, the API answers 409 with the conflicts so the client can
//     ask the user and resubmit with "confirm_conflicts": true or false.
//   - GET /bookings/calendar: calendar feed entries for a day range.
//     Public.
//   - GET /bookings/{id}, PUT /bookings/{id}, DELETE /bookings/{id}:
//     single-booking operations; mutations require a session and are
//     restricted to the owner or privileged users.
//   - POST /users, GET /users, GET /users/{id}, PUT /users/{id},
//     DELETE /users/{id}: account management, restricted to privileged
//     users.
//
// Request/response DTOs live alongside their respective handlers.
package http
