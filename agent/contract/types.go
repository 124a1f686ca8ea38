package contract

// CustomerRecord is one row of the batch data source. Index is the 0-based
// row ordinal stored in column A; the persistent row number for updates is
// Index+1 because the sheet is 1-indexed.
type CustomerRecord struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	Address string `json:"address"`
}

// JobMetadata is the serialized payload attached to a call-agent job. The
// agent parses it back at session start to know who it is talking to.
type JobMetadata struct {
	PhoneNumber  string         `json:"phone_number"`
	CustomerData CustomerRecord `json:"customer_data"`
}

// DispatchJob is the unit of work the dispatcher builds per record: the
// normalized number, a unique room name, and the metadata blob. Created per
// loop iteration, discarded after the outcome is recorded.
type DispatchJob struct {
	ID          string
	Room        string
	PhoneNumber string
	Customer    CustomerRecord
	Metadata    string
}

// Field names a mutable customer field. The set is closed: anything outside
// it is a contract violation reported as an error result.
type Field string

const (
	FieldName    Field = "name"
	FieldAddress Field = "address"
)

// ColumnMap binds each mutable field to its spreadsheet column letter.
type ColumnMap map[Field]string

// DefaultColumnMap matches the observed sheet schema.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		FieldName:    "B",
		FieldAddress: "D",
	}
}

// CommandKind enumerates the actions the model may request mid-call.
type CommandKind string

const (
	CommandUpdateField     CommandKind = "update_customer_details"
	CommandEndCall         CommandKind = "end_call"
	CommandReportVoicemail CommandKind = "detected_answering_machine"
)

// CommandRequest is a parsed, validated model tool call.
type CommandRequest struct {
	Kind   CommandKind
	CallID string
	Field  Field
	Value  string
}

// CommandResult carries what the agent should speak back, or a structured
// error when the command could not be applied.
type CommandResult struct {
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	UpdatedCells int64  `json:"updated_cells,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (r CommandResult) Failed() bool {
	return r.Error != ""
}

// DispatchStatus classifies the terminal fate of one dispatch job.
type DispatchStatus string

const (
	DispatchSucceeded DispatchStatus = "dispatched"
	DispatchSkipped   DispatchStatus = "skipped"
	DispatchFailed    DispatchStatus = "failed"
)

// CallOutcome is the per-record result persisted by the outcome store.
type CallOutcome struct {
	JobID         string
	Room          string
	PhoneNumber   string
	CustomerIndex int
	Status        DispatchStatus
	Error         string
}
