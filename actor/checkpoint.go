package actor

import (
	"time"

	"github.com/xraph/stint/id"
)

// Checkpoint stores the serialized progress of a job actor between
// resumption slices. The data is owned entirely by the processor: the
// controller neither creates nor reads it, and the processor clears it
// on successful completion.
type Checkpoint struct {
	JobID     id.JobID  `json:"job_id"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}
