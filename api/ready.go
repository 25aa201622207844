// File: api/ready.go
// Author: momentics <momentics@gmail.com>
//
// Direction bitmask shared between the connection registration and the
// OS readiness multiplexer.

package api

import "strings"

// Ready is a bitmask of I/O directions. It is used both as the interest
// set registered with the reactor and as the readiness set reported back
// from it.
type Ready uint8

const (
	// Readable marks read-direction interest or readiness.
	Readable Ready = 1 << iota
	// Writable marks write-direction interest or readiness.
	Writable
	// ReadyErr reports an error condition on the descriptor. It is never
	// part of an interest set; the multiplexer always delivers it.
	ReadyErr
	// ReadyHup reports a peer hangup. Like ReadyErr it is delivery-only.
	ReadyHup
)

// IsReadable reports whether the read direction is set.
func (r Ready) IsReadable() bool { return r&Readable != 0 }

// IsWritable reports whether the write direction is set.
func (r Ready) IsWritable() bool { return r&Writable != 0 }

// HasError reports whether an error or hangup condition is set.
func (r Ready) HasError() bool { return r&(ReadyErr|ReadyHup) != 0 }

// String returns a "+"-joined list of the set directions.
func (r Ready) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	if r&Readable != 0 {
		parts = append(parts, "readable")
	}
	if r&Writable != 0 {
		parts = append(parts, "writable")
	}
	if r&ReadyErr != 0 {
		parts = append(parts, "err")
	}
	if r&ReadyHup != 0 {
		parts = append(parts, "hup")
	}
	return strings.Join(parts, "+")
}
