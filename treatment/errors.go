package treatment

import "fmt"

// SchedulingError reports that a treatment was persisted but booking its
// follow-up appointments stopped part way. The treatment is not rolled back.
type SchedulingError struct {
	TreatmentID uint
	Booked      int
	Requested   int
	Err         error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("treatment %d created but only %d of %d appointments were booked: %v",
		e.TreatmentID, e.Booked, e.Requested, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}
