package state

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/voxline/voxline/agent/contract"
)

var testNow = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

func newSession() *CallSession {
	return NewCallSession("call_+919876543210_1", &contractx.CustomerRecord{
		Index:   0,
		Name:    "Asha Rao",
		Number:  "+919876543210",
		Address: "12 Lake Road",
	}, testNow)
}

func TestNewCallSessionStartsAtGreeting(t *testing.T) {
	t.Parallel()

	sess := newSession()
	if sess.State() != StateGreeting {
		t.Fatalf("state = %s, want %s", sess.State(), StateGreeting)
	}
}

func TestHappyPathTransitions(t *testing.T) {
	t.Parallel()

	sess := newSession()
	for _, next := range []CallState{StateConfirming, StateCorrecting, StateConfirming, StateClosing, StateTerminated} {
		if err := sess.TransitionTo(next, testNow); err != nil {
			t.Fatalf("TransitionTo(%s) error = %v", next, err)
		}
	}
	if !sess.State().Terminal() {
		t.Fatalf("state = %s, want terminal", sess.State())
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from CallState
		to   CallState
	}{
		{StateGreeting, StateCorrecting},
		{StateGreeting, StateTerminated},
		{StateConfirming, StateGreeting},
		{StateClosing, StateConfirming},
		{StateLeavingMessage, StateConfirming},
	}
	for _, tc := range cases {
		sess := newSession()
		sess.state = tc.from
		if err := sess.TransitionTo(tc.to, testNow); !errors.Is(err, contractx.ErrInvalidTransition) {
			t.Fatalf("TransitionTo(%s -> %s) error = %v, want ErrInvalidTransition", tc.from, tc.to, err)
		}
		if sess.State() != tc.from {
			t.Fatalf("state changed on rejected transition: %s", sess.State())
		}
	}
}

func TestVoicemailReachableFromAnyNonTerminalState(t *testing.T) {
	t.Parallel()

	for _, from := range []CallState{StateGreeting, StateConfirming, StateCorrecting, StateClosing, StateLeavingMessage} {
		sess := newSession()
		sess.state = from
		if err := sess.TransitionTo(StateVoicemailDetected, testNow); err != nil {
			t.Fatalf("TransitionTo(%s -> voicemail) error = %v", from, err)
		}
		if err := sess.TransitionTo(StateLeavingMessage, testNow); err != nil {
			t.Fatalf("TransitionTo(voicemail -> leaving_message) error = %v", err)
		}
		if err := sess.TransitionTo(StateTerminated, testNow); err != nil {
			t.Fatalf("TransitionTo(leaving_message -> terminated) error = %v", err)
		}
	}
}

func TestVoicemailRejectedAfterTermination(t *testing.T) {
	t.Parallel()

	sess := newSession()
	sess.state = StateTerminated
	if err := sess.TransitionTo(StateVoicemailDetected, testNow); !errors.Is(err, contractx.ErrInvalidTransition) {
		t.Fatalf("TransitionTo error = %v, want ErrInvalidTransition", err)
	}
}

func TestApplyCorrectionMutatesRecordAndLogsChange(t *testing.T) {
	t.Parallel()

	sess := newSession()
	old, err := sess.ApplyCorrection(contractx.FieldAddress, "4 Hill Street", testNow)
	if err != nil {
		t.Fatalf("ApplyCorrection() error = %v", err)
	}
	if old != "12 Lake Road" {
		t.Fatalf("old value = %q", old)
	}
	if sess.Customer.Address != "4 Hill Street" {
		t.Fatalf("address = %q, want corrected value", sess.Customer.Address)
	}
	if len(sess.Corrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(sess.Corrections))
	}
	if sess.Corrections[0].OldValue != "12 Lake Road" || sess.Corrections[0].NewValue != "4 Hill Street" {
		t.Fatalf("correction entry = %+v", sess.Corrections[0])
	}
}

func TestApplyCorrectionRejectsUnknownField(t *testing.T) {
	t.Parallel()

	sess := newSession()
	if _, err := sess.ApplyCorrection(contractx.Field("email"), "a@b.c", testNow); !errors.Is(err, contractx.ErrInvalidField) {
		t.Fatalf("ApplyCorrection() error = %v, want ErrInvalidField", err)
	}
	if len(sess.Corrections) != 0 {
		t.Fatalf("corrections recorded on rejected field")
	}
}

func TestApplyCorrectionRequiresCustomer(t *testing.T) {
	t.Parallel()

	sess := NewCallSession("room", nil, testNow)
	if _, err := sess.ApplyCorrection(contractx.FieldName, "x", testNow); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("ApplyCorrection() error = %v, want ErrValidation", err)
	}
}
