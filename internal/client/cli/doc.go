// Package cli is the interactive ordersync client.
//
// App wires the local store, the remote order client, the session, order
// and cart services and the new-order watcher, then runs a line-based REPL.
// A background monitor pings the server and switches the prompt between
// online and offline; reads fall back to the local cache while offline and
// orders placed offline are replayed on the next successful fetch.
//
// Admins (signed in with a bearer token carrying role=admin) additionally get
// all, status, delete and watch.
package cli
