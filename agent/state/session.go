package state

import (
	"fmt"
	"time"

	contractx "github.com/voxline/voxline/agent/contract"
)

// CallState is the conversational phase of a single phone call.
//
//	Greeting -> Confirming <-> Correcting -> Closing -> Terminated
//
// with a voicemail branch (VoicemailDetected -> LeavingMessage ->
// Terminated) reachable from any non-terminal state.
type CallState string

const (
	StateGreeting          CallState = "greeting"
	StateConfirming        CallState = "confirming"
	StateCorrecting        CallState = "correcting"
	StateClosing           CallState = "closing"
	StateVoicemailDetected CallState = "voicemail_detected"
	StateLeavingMessage    CallState = "leaving_message"
	StateTerminated        CallState = "terminated"
)

func (s CallState) Terminal() bool {
	return s == StateTerminated
}

var transitions = map[CallState][]CallState{
	StateGreeting:          {StateConfirming, StateClosing},
	StateConfirming:        {StateCorrecting, StateClosing},
	StateCorrecting:        {StateConfirming, StateClosing},
	StateClosing:           {StateTerminated},
	StateVoicemailDetected: {StateLeavingMessage},
	StateLeavingMessage:    {StateTerminated},
	StateTerminated:        nil,
}

// Correction is one applied field change, recorded only after the data
// source write succeeded.
type Correction struct {
	Field    contractx.Field
	OldValue string
	NewValue string
	At       time.Time
}

// CallSession is owned exclusively by one call agent for the lifetime of one
// call. Its customer data, once loaded, is the source of truth for the call;
// corrections are written to the data source before they land here.
type CallSession struct {
	Room        string
	Customer    *contractx.CustomerRecord
	Corrections []Correction

	state     CallState
	UpdatedAt time.Time
}

func NewCallSession(room string, customer *contractx.CustomerRecord, now time.Time) *CallSession {
	return &CallSession{
		Room:      room,
		Customer:  customer,
		state:     StateGreeting,
		UpdatedAt: now.UTC(),
	}
}

func (s *CallSession) State() CallState {
	return s.state
}

// TransitionTo moves the session to next if the transition table allows it.
// VoicemailDetected is special-cased: it is legal from every non-terminal
// state, since an answering machine can be recognized at any point.
func (s *CallSession) TransitionTo(next CallState, now time.Time) error {
	if next == StateVoicemailDetected {
		if s.state.Terminal() {
			return fmt.Errorf("%w: %s -> %s", contractx.ErrInvalidTransition, s.state, next)
		}
		s.set(next, now)
		return nil
	}

	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.set(next, now)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", contractx.ErrInvalidTransition, s.state, next)
}

func (s *CallSession) set(next CallState, now time.Time) {
	s.state = next
	s.UpdatedAt = now.UTC()
}

// ApplyCorrection mutates the in-memory record and appends the correction
// entry. Call it only after the external write succeeded.
func (s *CallSession) ApplyCorrection(field contractx.Field, value string, now time.Time) (string, error) {
	if s.Customer == nil {
		return "", fmt.Errorf("%w: no customer data on session", contractx.ErrValidation)
	}

	var old string
	switch field {
	case contractx.FieldName:
		old = s.Customer.Name
		s.Customer.Name = value
	case contractx.FieldAddress:
		old = s.Customer.Address
		s.Customer.Address = value
	default:
		return "", fmt.Errorf("%w: %s", contractx.ErrInvalidField, field)
	}

	s.Corrections = append(s.Corrections, Correction{
		Field:    field,
		OldValue: old,
		NewValue: value,
		At:       now.UTC(),
	})
	s.UpdatedAt = now.UTC()
	return old, nil
}
