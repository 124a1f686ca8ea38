package contract

import "context"

// DataSource is the external tabular collaborator. All three calls may fail
// with ErrDataSource; callers log and skip rather than crash.
type DataSource interface {
	ReadAll(ctx context.Context, readRange string) ([][]string, error)
	UpdateCell(ctx context.Context, cellRange string, value string) (int64, error)
	ClearRange(ctx context.Context, clearRange string) (string, error)
}

// CallPlatform is the managed real-time calling platform: it hosts rooms,
// instantiates agent jobs, and places the outbound SIP leg.
type CallPlatform interface {
	CreateDispatch(ctx context.Context, agentName, room, metadata string) error
	DialSIP(ctx context.Context, room, number string) error
	DeleteRoom(ctx context.Context, room string) error
}

// ReplyGenerator produces a spoken reply from free-form instructions. Used
// for the greeting and the voicemail message, where no tool calling is
// involved.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, instructions string) (string, error)
}

// SpeechHandle tracks one utterance being played out to the callee.
type SpeechHandle interface {
	WaitForPlayout(ctx context.Context) error
}

// SpeechSession is the fixed interface over the managed voice pipeline.
// Speech recognition, synthesis, and turn detection live behind it.
type SpeechSession interface {
	// Say starts speaking text and returns a handle to await playout.
	Say(ctx context.Context, text string) (SpeechHandle, error)
	// NextTranscript blocks until the callee's next final utterance.
	NextTranscript(ctx context.Context) (string, error)
}

// AuditTrail is the append-only compliance log. Records are flushed as they
// are written and never mutated.
type AuditTrail interface {
	Event(eventType, speaker, text string) error
	Close() error
}

// OutcomeStore persists per-record dispatch outcomes.
type OutcomeStore interface {
	Record(ctx context.Context, outcome CallOutcome) error
}
