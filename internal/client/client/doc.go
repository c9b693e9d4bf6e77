// Package client talks to the remote order store and owns the client's local
// SQLite file.
//
// # Overview
//
// The package provides:
//  1. The Client contract for the order store: Ping, ListOrders,
//     CreateOrder, UpdateOrderStatus and DeleteOrder.
//  2. HTTPClient, a JSON-over-HTTP implementation that bounds every request
//     with a timeout, sends the device id and bearer token, and classifies
//     every failure.
//  3. OpenLocalStore and RunMigrations, which open the SQLite slot store and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// Every call ends in exactly one of three ways: a typed payload, a
// *RejectedError (the store answered and refused), or an error matching
// ErrUnavailable (the store could not be reached in time). Callers branch on
// IsUnavailable and IsRejected only. A successful empty listing is never an
// error.
package client
