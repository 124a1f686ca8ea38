package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/voxline/voxline/agent/contract"
	promptx "github.com/voxline/voxline/agent/prompt"
	statex "github.com/voxline/voxline/agent/state"
	toolx "github.com/voxline/voxline/agent/tool"
)

const (
	defaultTrailingPause = 500 * time.Millisecond

	fallbackVoicemail = "Hello, this is an automated assistant calling to confirm your details. We'll call back later. Goodbye."
	updateFailedLine  = "I'm sorry, I couldn't update that just now. We'll keep your current details for the moment."
)

// Agent drives one phone call end to end: greeting, confirmation turns,
// corrections, and teardown. It owns its CallSession exclusively; nothing
// here is shared between concurrent calls except the external data source.
type Agent struct {
	turnRunner compose.Runnable[map[string]any, *schema.Message]
	executor   *toolx.Executor
	replies    contractx.ReplyGenerator
	platform   contractx.CallPlatform
	speech     contractx.SpeechSession
	audit      contractx.AuditTrail
	prompts    promptx.PromptSet

	trailingPause time.Duration
	now           func() time.Time
	sleep         func(context.Context, time.Duration)

	history       []*schema.Message
	currentSpeech contractx.SpeechHandle
}

type Option func(*Agent)

// WithTrailingPause sets the silence appended after the voicemail message so
// answering machines don't clip the recording.
func WithTrailingPause(d time.Duration) Option {
	return func(a *Agent) {
		if d >= 0 {
			a.trailingPause = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		if now != nil {
			a.now = now
		}
	}
}

func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(a *Agent) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	executor *toolx.Executor,
	replies contractx.ReplyGenerator,
	platform contractx.CallPlatform,
	speech contractx.SpeechSession,
	audit contractx.AuditTrail,
	prompts promptx.PromptSet,
	opts ...Option,
) (*Agent, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: command executor is required", contractx.ErrValidation)
	}
	if replies == nil {
		return nil, fmt.Errorf("%w: reply generator is required", contractx.ErrValidation)
	}
	if platform == nil {
		return nil, fmt.Errorf("%w: call platform is required", contractx.ErrValidation)
	}
	if speech == nil {
		return nil, fmt.Errorf("%w: speech session is required", contractx.ErrValidation)
	}
	if audit == nil {
		return nil, fmt.Errorf("%w: audit trail is required", contractx.ErrValidation)
	}

	toolModel, err := chatModel.WithTools(toolx.Infos())
	if err != nil {
		return nil, fmt.Errorf("%w: bind call tools: %v", contractx.ErrModelInvoke, err)
	}

	turnRunner, err := compileTurnGraph(ctx, toolModel, prompts.System)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	a := &Agent{
		turnRunner:    turnRunner,
		executor:      executor,
		replies:       replies,
		platform:      platform,
		speech:        speech,
		audit:         audit,
		prompts:       prompts,
		trailingPause: defaultTrailingPause,
		now:           time.Now,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Run owns the call from greeting to teardown. Per-turn failures are logged
// and the conversation continues; only a dead transcript stream or context
// cancellation ends the call early, and even then the room is released.
func (a *Agent) Run(ctx context.Context, sess *statex.CallSession) error {
	_ = a.audit.Event("event", "system", "Starting agent session")

	if err := a.greet(ctx, sess); err != nil {
		log.Error().Err(err).Msg("greeting failed, ending call")
		_ = a.audit.Event("error", "system", fmt.Sprintf("Error handling call: %v", err))
		a.terminate(ctx, sess)
		return err
	}

	for !sess.State().Terminal() {
		transcript, err := a.speech.NextTranscript(ctx)
		if err != nil {
			log.Info().Err(err).Msg("transcript stream ended")
			a.terminate(ctx, sess)
			return nil
		}
		transcript = strings.TrimSpace(transcript)
		if transcript == "" {
			continue
		}
		_ = a.audit.Event("user_speech", "user", transcript)

		if err := a.handleTurn(ctx, sess, transcript); err != nil {
			log.Error().Err(err).Msg("turn failed")
			_ = a.audit.Event("error", "system", fmt.Sprintf("Error handling call: %v", err))
		}
	}
	return nil
}

func (a *Agent) greet(ctx context.Context, sess *statex.CallSession) error {
	if sess.Customer == nil {
		log.Warn().Msg("no customer data found in metadata")
	}

	text, err := a.replies.GenerateReply(ctx, a.prompts.GreetingFor(sess.Customer))
	if err != nil {
		return err
	}

	a.say(ctx, text)
	_ = a.audit.Event("agent_reply", "agent", "Initial greeting sent for outbound call")

	return sess.TransitionTo(statex.StateConfirming, a.now())
}

func (a *Agent) handleTurn(ctx context.Context, sess *statex.CallSession, transcript string) error {
	userMsg := schema.UserMessage(transcript)

	msg, err := a.turnRunner.Invoke(ctx, map[string]any{
		"history": a.history,
		"input":   transcript,
	})
	if err != nil {
		return fmt.Errorf("%w: turn invoke: %v", contractx.ErrModelInvoke, err)
	}

	a.history = append(a.history, userMsg, msg)

	if len(msg.ToolCalls) == 0 {
		if content := strings.TrimSpace(msg.Content); content != "" {
			a.say(ctx, content)
			_ = a.audit.Event("agent_reply", "agent", content)
		}
		return nil
	}

	reqs, err := toolx.ParseCalls(msg.ToolCalls)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if err := a.dispatchCommand(ctx, sess, req); err != nil {
			return err
		}
		if sess.State().Terminal() {
			break
		}
	}
	return nil
}

// dispatchCommand routes one parsed command through the typed handler table.
func (a *Agent) dispatchCommand(ctx context.Context, sess *statex.CallSession, req contractx.CommandRequest) error {
	switch req.Kind {
	case contractx.CommandUpdateField:
		return a.handleUpdateField(ctx, sess, req)
	case contractx.CommandEndCall:
		return a.handleEndCall(ctx, sess)
	case contractx.CommandReportVoicemail:
		return a.handleVoicemail(ctx, sess)
	default:
		return fmt.Errorf("%w: unknown command=%s", contractx.ErrValidation, req.Kind)
	}
}

func (a *Agent) handleUpdateField(ctx context.Context, sess *statex.CallSession, req contractx.CommandRequest) error {
	if sess.State() != statex.StateCorrecting {
		if err := sess.TransitionTo(statex.StateCorrecting, a.now()); err != nil {
			return err
		}
	}

	result := a.executor.UpdateField(ctx, sess, req.Field, req.Value)
	_ = a.audit.Event("function_call", "agent", fmt.Sprintf("update_customer_details field=%s", req.Field))
	a.appendToolResult(req.CallID, result)

	if result.Failed() {
		// No retry here: the update is reported as not made, never falsely
		// confirmed.
		a.say(ctx, updateFailedLine)
		_ = a.audit.Event("agent_reply", "agent", updateFailedLine)
	} else {
		line := result.Message + ". Is everything else correct?"
		a.say(ctx, line)
		_ = a.audit.Event("agent_reply", "agent", line)
	}

	return sess.TransitionTo(statex.StateConfirming, a.now())
}

func (a *Agent) handleEndCall(ctx context.Context, sess *statex.CallSession) error {
	_ = a.audit.Event("function_call", "agent", "end_call triggered")

	if err := sess.TransitionTo(statex.StateClosing, a.now()); err != nil {
		return err
	}

	// Let the agent finish speaking before the line drops.
	a.waitForPlayout(ctx)
	a.hangup(ctx, sess)
	return nil
}

func (a *Agent) handleVoicemail(ctx context.Context, sess *statex.CallSession) error {
	log.Info().Msg("detected answering machine")
	_ = a.audit.Event("event", "agent", "Detected answering machine")

	if err := sess.TransitionTo(statex.StateVoicemailDetected, a.now()); err != nil {
		return err
	}

	message, err := a.replies.GenerateReply(ctx, a.prompts.Voicemail)
	if err != nil {
		log.Error().Err(err).Msg("voicemail reply generation failed, using fallback")
		message = fallbackVoicemail
	}

	if err := sess.TransitionTo(statex.StateLeavingMessage, a.now()); err != nil {
		return err
	}

	a.say(ctx, message)
	_ = a.audit.Event("agent_reply", "agent", message)
	a.waitForPlayout(ctx)

	// Natural gap so the voicemail system doesn't truncate the recording.
	a.sleep(ctx, a.trailingPause)

	a.hangup(ctx, sess)
	return nil
}

func (a *Agent) say(ctx context.Context, text string) {
	handle, err := a.speech.Say(ctx, text)
	if err != nil {
		log.Error().Err(err).Msg("speech synthesis failed")
		return
	}
	a.currentSpeech = handle
}

func (a *Agent) waitForPlayout(ctx context.Context) {
	if a.currentSpeech == nil {
		return
	}
	if err := a.currentSpeech.WaitForPlayout(ctx); err != nil {
		log.Error().Err(err).Msg("wait for playout failed")
	}
}

// hangup releases the room. Best-effort: failure is logged, never retried,
// and the session still reaches Terminated.
func (a *Agent) hangup(ctx context.Context, sess *statex.CallSession) {
	_ = a.audit.Event("event", "agent", fmt.Sprintf("Hanging up call, deleting room %s", sess.Room))

	if err := a.platform.DeleteRoom(ctx, sess.Room); err != nil {
		log.Error().Err(err).Str("room", sess.Room).Msg("error hanging up call")
		_ = a.audit.Event("error", "agent", fmt.Sprintf("Error hanging up call: %v", err))
	}

	if err := sess.TransitionTo(statex.StateTerminated, a.now()); err != nil {
		log.Error().Err(err).Str("state", string(sess.State())).Msg("could not reach terminated state")
	}
}

// terminate force-closes a call that ended outside the normal flow (hangup
// by the callee, cancelled context).
func (a *Agent) terminate(ctx context.Context, sess *statex.CallSession) {
	if sess.State().Terminal() {
		return
	}
	if sess.State() != statex.StateClosing {
		if err := sess.TransitionTo(statex.StateClosing, a.now()); err != nil {
			log.Error().Err(err).Msg("could not enter closing state")
		}
	}
	a.hangup(ctx, sess)
}

func (a *Agent) appendToolResult(callID string, result contractx.CommandResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error":"unencodable tool result"}`)
	}
	a.history = append(a.history, schema.ToolMessage(string(payload), callID))
}
