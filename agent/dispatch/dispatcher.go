package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/voxline/voxline/agent/contract"
)

// dispatchSettle is the grace period between creating the agent job and
// dialing, so the agent is connected before the callee answers.
const dispatchSettle = time.Second

type Config struct {
	ReadRange       string        `envconfig:"READ_RANGE" split_words:"true" default:"Sheet1!A2:D"`
	AgentName       string        `envconfig:"AGENT_NAME" split_words:"true" default:"outbound-caller"`
	CallCooldown    time.Duration `envconfig:"CALL_COOLDOWN" split_words:"true" default:"60s"`
	FailureCooldown time.Duration `envconfig:"FAILURE_COOLDOWN" split_words:"true" default:"5s"`
	DialTimeout     time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"2m"`
}

// Dispatcher walks the customer list in source order, one call at a time,
// throttling between calls. Per-record failures never abort the batch; only
// an unreadable data source or a missing trunk id ends the run.
type Dispatcher struct {
	source   contractx.DataSource
	platform contractx.CallPlatform
	outcomes contractx.OutcomeStore
	plan     NumberPlan
	cfg      Config

	now   func() time.Time
	sleep func(context.Context, time.Duration)
	newID func() string
}

type Option func(*Dispatcher)

func WithOutcomeStore(store contractx.OutcomeStore) Option {
	return func(d *Dispatcher) { d.outcomes = store }
}

func WithNumberPlan(plan NumberPlan) Option {
	return func(d *Dispatcher) {
		if plan.CountryCode != "" && plan.NationalLength > 0 {
			d.plan = plan
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(d *Dispatcher) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

func New(source contractx.DataSource, platform contractx.CallPlatform, cfg Config, opts ...Option) (*Dispatcher, error) {
	if source == nil {
		return nil, errors.New("data source is required")
	}
	if platform == nil {
		return nil, errors.New("call platform is required")
	}
	if cfg.ReadRange == "" {
		cfg.ReadRange = "Sheet1!A2:D"
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "outbound-caller"
	}

	d := &Dispatcher{
		source:   source,
		platform: platform,
		plan:     DefaultNumberPlan,
		cfg:      cfg,
		now:      time.Now,
		sleep: func(ctx context.Context, dur time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(dur):
			}
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Run processes the whole batch. The returned error is non-nil only for
// run-fatal conditions: unreadable data source, missing trunk id, or a
// cancelled context.
func (d *Dispatcher) Run(ctx context.Context) error {
	rows, err := d.source.ReadAll(ctx, d.cfg.ReadRange)
	if err != nil {
		log.Error().Err(err).Str("range", d.cfg.ReadRange).Msg("could not read customer data")
		return err
	}
	if len(rows) == 0 {
		log.Info().Msg("no customer data found")
		return nil
	}
	log.Info().Int("customers", len(rows)).Msg("starting dispatch run")

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, ok := parseRecord(row)
		if !ok {
			log.Warn().Strs("row", row).Msg("skipping row due to missing fields")
			d.record(ctx, contractx.CallOutcome{
				JobID:  d.newID(),
				Status: contractx.DispatchSkipped,
				Error:  "missing required fields",
			})
			continue
		}

		job, err := d.buildJob(record)
		if err != nil {
			log.Error().Err(err).Str("number", record.Number).Msg("record failed before dispatch")
			d.record(ctx, contractx.CallOutcome{
				JobID:         d.newID(),
				PhoneNumber:   record.Number,
				CustomerIndex: record.Index,
				Status:        contractx.DispatchFailed,
				Error:         err.Error(),
			})
			d.sleep(ctx, d.cfg.FailureCooldown)
			continue
		}

		err = d.placeCall(ctx, job)
		if errors.Is(err, contractx.ErrMissingTrunk) {
			// Configuration error, not a per-record one: stop the run.
			log.Error().Err(err).Msg("outbound trunk is not configured")
			d.recordJob(ctx, job, contractx.DispatchFailed, err)
			return err
		}

		if err != nil {
			log.Warn().Err(err).Str("customer", job.Customer.Name).Msg("call failed, skipping to next customer")
			d.recordJob(ctx, job, contractx.DispatchFailed, err)
			d.sleep(ctx, d.cfg.FailureCooldown)
			continue
		}

		log.Info().Str("number", job.PhoneNumber).Dur("cooldown", d.cfg.CallCooldown).Msg("call dispatched, waiting before next call")
		d.recordJob(ctx, job, contractx.DispatchSucceeded, nil)
		d.sleep(ctx, d.cfg.CallCooldown)
	}
	return nil
}

// buildJob normalizes the number and derives the per-call room name and
// metadata payload.
func (d *Dispatcher) buildJob(record contractx.CustomerRecord) (contractx.DispatchJob, error) {
	number, err := d.plan.Normalize(record.Number)
	if err != nil {
		return contractx.DispatchJob{}, err
	}

	metadata, err := json.Marshal(contractx.JobMetadata{
		PhoneNumber:  number,
		CustomerData: record,
	})
	if err != nil {
		return contractx.DispatchJob{}, fmt.Errorf("%w: marshal job metadata: %v", contractx.ErrJobCreation, err)
	}

	return contractx.DispatchJob{
		ID:          d.newID(),
		Room:        fmt.Sprintf("call_%s_%d", number, d.now().UnixNano()),
		PhoneNumber: number,
		Customer:    record,
		Metadata:    string(metadata),
	}, nil
}

func (d *Dispatcher) placeCall(ctx context.Context, job contractx.DispatchJob) error {
	log.Info().Str("room", job.Room).Str("number", job.PhoneNumber).Msg("creating agent dispatch")
	if err := d.platform.CreateDispatch(ctx, d.cfg.AgentName, job.Room, job.Metadata); err != nil {
		return err
	}

	d.sleep(ctx, dispatchSettle)

	dialCtx := ctx
	if d.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.cfg.DialTimeout)
		defer cancel()
	}

	log.Info().Str("room", job.Room).Msg("dialing outbound leg")
	return d.platform.DialSIP(dialCtx, job.Room, job.PhoneNumber)
}

func (d *Dispatcher) recordJob(ctx context.Context, job contractx.DispatchJob, status contractx.DispatchStatus, err error) {
	outcome := contractx.CallOutcome{
		JobID:         job.ID,
		Room:          job.Room,
		PhoneNumber:   job.PhoneNumber,
		CustomerIndex: job.Customer.Index,
		Status:        status,
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	d.record(ctx, outcome)
}

func (d *Dispatcher) record(ctx context.Context, outcome contractx.CallOutcome) {
	if d.outcomes == nil {
		return
	}
	if err := d.outcomes.Record(ctx, outcome); err != nil {
		log.Warn().Err(err).Str("job", outcome.JobID).Msg("could not record call outcome")
	}
}

// parseRecord requires the four observed columns: index, name, number,
// address. Anything shorter (or with a malformed index) is skipped, not
// failed: there is nothing to call.
func parseRecord(row []string) (contractx.CustomerRecord, bool) {
	if len(row) < 4 {
		return contractx.CustomerRecord{}, false
	}
	index, err := strconv.Atoi(row[0])
	if err != nil {
		return contractx.CustomerRecord{}, false
	}
	return contractx.CustomerRecord{
		Index:   index,
		Name:    row[1],
		Number:  row[2],
		Address: row[3],
	}, true
}
