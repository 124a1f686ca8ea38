package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/voxline/voxline/agent/contract"
	statex "github.com/voxline/voxline/agent/state"
)

// Executor applies UpdateField commands against the data source. End-call
// and voicemail commands are flow control and stay with the call agent.
type Executor struct {
	source    contractx.DataSource
	audit     contractx.AuditTrail
	columns   contractx.ColumnMap
	sheetName string
	now       func() time.Time
}

func NewExecutor(source contractx.DataSource, audit contractx.AuditTrail, columns contractx.ColumnMap, sheetName string) *Executor {
	if columns == nil {
		columns = contractx.DefaultColumnMap()
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &Executor{
		source:    source,
		audit:     audit,
		columns:   columns,
		sheetName: sheetName,
		now:       time.Now,
	}
}

// UpdateField writes the corrected value at the row derived from the
// customer's stored index (0-based index + 1, the sheet is 1-indexed) and
// the configured column for the field. The in-memory record is mutated only
// after the write succeeds; every failure comes back as a structured error
// result the agent can speak, never a crash.
func (e *Executor) UpdateField(ctx context.Context, sess *statex.CallSession, field contractx.Field, value string) contractx.CommandResult {
	column, ok := e.columns[field]
	if !ok {
		msg := fmt.Sprintf("Invalid field: %s. Must be 'name' or 'address'", field)
		log.Error().Str("field", string(field)).Msg("update rejected: field outside contract")
		return contractx.CommandResult{Error: msg}
	}

	if sess == nil || sess.Customer == nil {
		log.Error().Msg("update rejected: no customer data on session")
		return contractx.CommandResult{Error: "No customer data found in session"}
	}

	row := sess.Customer.Index + 1
	cellRange := fmt.Sprintf("%s!%s%d", e.sheetName, column, row)
	log.Info().Str("range", cellRange).Str("field", string(field)).Str("value", value).Msg("updating customer detail")

	updated, err := e.source.UpdateCell(ctx, cellRange, value)
	if err != nil {
		log.Error().Err(err).Str("range", cellRange).Msg("sheet update failed")
		return contractx.CommandResult{Error: fmt.Sprintf("Error during sheet update: %v", err)}
	}

	if _, err := sess.ApplyCorrection(field, value, e.now()); err != nil {
		// The external write already landed; surface the local inconsistency.
		log.Error().Err(err).Msg("failed to apply correction to session")
		return contractx.CommandResult{Error: err.Error()}
	}

	if e.audit != nil {
		_ = e.audit.Event("sheet_update", "agent", fmt.Sprintf("Updated %s to %s in row %d", field, value, row))
	}

	return contractx.CommandResult{
		Status:       "success",
		Message:      fmt.Sprintf("Updated %s to: %s", field, value),
		UpdatedCells: updated,
	}
}
