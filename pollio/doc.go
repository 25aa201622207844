// File: pollio/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package pollio bridges a raw non-blocking duplex transport and the
// cooperative executor. Conn is the per-transport registration record
// (descriptor, one waker slot per direction, armed interest mask); IO is
// the channel adapter an engine drives through TryRead and TryWrite,
// which either complete synchronously or park a waker and report
// pending.
package pollio
