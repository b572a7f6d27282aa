// Package api implements the JSON REST surface: token issue and refresh,
// signup and user administration, and the task endpoints. Handlers decode
// and validate transport concerns, delegate to the service layer, and map
// service errors to status codes through HandleAPIError.
package api
