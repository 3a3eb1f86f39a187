// Package api handles incoming HTTP requests, routing, request decoding
// and response formatting. It acts as an adapter between external clients
// and the account, session and check services, translating HTTP concerns
// to service operations and service errors back to status codes.
package api
