// Package api exposes the task and user services over JSON HTTP. Handlers
// decode and check request bodies, delegate to the service layer, and render
// every outcome as a {message, data} envelope. Errors are mapped to status
// codes in one place, MapErrorToStatusCode.
package api
