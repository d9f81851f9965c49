package ingest

// Outcome is how the pipeline finished with one message.
type Outcome string

// Pipeline outcomes. Only OutcomeWritten persists a reading.
const (
	OutcomeWritten          Outcome = "written"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeUnidentified     Outcome = "unidentified"
	OutcomeOutOfScope       Outcome = "out_of_scope"
	OutcomeUnregistered     Outcome = "unregistered"
	OutcomeIdentityConflict Outcome = "identity_conflict"
	OutcomeResolveFailed    Outcome = "resolve_failed"
	OutcomeWriteFailed      Outcome = "write_failed"
)

// Outcomes lists every outcome, for pre-initialising metric series.
var Outcomes = []Outcome{
	OutcomeWritten,
	OutcomeMalformed,
	OutcomeUnidentified,
	OutcomeOutOfScope,
	OutcomeUnregistered,
	OutcomeIdentityConflict,
	OutcomeResolveFailed,
	OutcomeWriteFailed,
}
