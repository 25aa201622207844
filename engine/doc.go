// File: engine/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package engine is a deliberately small line-oriented protocol engine
// used to exercise the reactor core end to end. It is the stand-in for
// the opaque protocol machine the core is designed to host: every
// operation (handshake, send, body streaming, serving) is expressed as
// a task whose step function drives pollio.IO and parks wakers when
// the transport would block. Nothing in the core depends on it.
//
// Wire format: the handshake is a single "HELLO" line in each
// direction. A request is one line. A response is a "+status" line,
// zero or more body lines, and a "." terminator line.
package engine
