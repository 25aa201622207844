package api_test

import (
	"testing"

	"github.com/momentics/hioload-reactor/api"
)

func TestReady_DirectionChecks(t *testing.T) {
	r := api.Readable | api.Writable
	if !r.IsReadable() || !r.IsWritable() || r.HasError() {
		t.Fatalf("mask %v misreported directions", r)
	}
	if !(api.ReadyErr).HasError() || !(api.ReadyHup).HasError() {
		t.Error("error conditions not reported by HasError")
	}
}

func TestReady_String(t *testing.T) {
	if got := api.Ready(0).String(); got != "none" {
		t.Errorf("empty mask = %q, want none", got)
	}
	if got := (api.Readable | api.ReadyHup).String(); got != "readable+hup" {
		t.Errorf("mask = %q, want readable+hup", got)
	}
}

func TestError_ContextFormatting(t *testing.T) {
	err := api.NewError(api.ErrCodeRegistration, "attach transport").
		WithContext("fd", 7)
	if err.Code != api.ErrCodeRegistration {
		t.Errorf("code = %v", err.Code)
	}
	msg := err.Error()
	if msg == "attach transport" {
		t.Error("context missing from formatted message")
	}
	bare := api.NewError(api.ErrCodeTimeout, "request read timed out")
	if bare.Error() != "request read timed out" {
		t.Errorf("bare message = %q", bare.Error())
	}
}
