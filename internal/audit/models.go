package audit

import "time"

// Direction of a ledger movement.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Event is one immutable movement record. Keep it transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID          string
	Timestamp   time.Time
	Scenario    int
	Address     string
	Item        string
	Direction   string
	Quantity    int
	Discrepancy int
	Remarks     string
	// DocumentReference ties every movement of one commit batch together.
	DocumentReference string
	Operator          string
}
