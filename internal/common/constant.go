// Package common holds the wire constants and sentinel errors the order
// store client and the reference server agree on.
package common

const (
	// DeviceIDHeader carries the caller's device id on every request.
	DeviceIDHeader = "X-Device-Id"
	// ScopeQueryParam restricts GET /orders to one device scope.
	ScopeQueryParam = "scope"
)
