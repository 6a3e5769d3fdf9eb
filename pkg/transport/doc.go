// Package transport is the HTTP client for the telemetry collector.
//
// The collector exposes three JSON endpoints below one base URL:
//
//	GET  {base}/awake    liveness probe, any 2xx means awake
//	POST {base}/connect  {userName, secret, version, section} -> {sessionKey, sessionIndex, message}
//	POST {base}/log      one serialized event, response body ignored
//
// Requests carry "Content-Type: application/json" and
// "Accept: application/json". Non-2xx responses are returned as *StatusError
// so callers can surface the collector's message to the user.
package transport
