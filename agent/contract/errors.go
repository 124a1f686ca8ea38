package contract

import "errors"

var (
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrDataSource         = errors.New("data source request failed")
	ErrJobCreation        = errors.New("agent job creation failed")
	ErrTelephonyLeg       = errors.New("telephony leg failed")
	ErrInvalidField       = errors.New("invalid customer field")
	ErrMissingTrunk       = errors.New("sip outbound trunk id is not configured")
	ErrModelInvoke        = errors.New("model invoke failed")
	ErrInvalidTransition  = errors.New("invalid call state transition")
	ErrValidation         = errors.New("validation failed")
)
