// Package api provides the HTTP handlers for the task marketplace API:
// registration and login, the task lifecycle endpoints, listings, and
// per-user statistics. Handlers translate between the wire representations
// and the service layer, and map service errors to HTTP status codes.
package api
