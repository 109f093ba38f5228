// Package http implements the HTTP transport layer of the application.
// It provides middleware, control-plane route handlers, and the WebSocket
// entry point of the realtime sync stream. Authentication, logging,
// tracing, and compression concerns are all handled at this layer before
// requests are forwarded to the service layer or the hub.
package http
