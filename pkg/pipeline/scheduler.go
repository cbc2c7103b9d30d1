package pipeline

// Phase is what the loop does with the frame of the current iteration.
type Phase int

const (
	// Compute runs the matcher on the frame.
	Compute Phase = iota
	// Reuse keeps the results of the last Compute.
	Reuse
)

func (p Phase) String() string {
	switch p {
	case Compute:
		return "compute"
	case Reuse:
		return "reuse"
	}
	return "unknown"
}

// Scheduler alternates strictly between Compute and Reuse, starting with
// Compute. It ignores timing and frame content.
type Scheduler struct {
	next Phase
}

// NewScheduler returns a scheduler whose first phase is Compute.
func NewScheduler() *Scheduler {
	return &Scheduler{next: Compute}
}

// Next returns the phase for the current iteration and advances.
func (s *Scheduler) Next() Phase {
	p := s.next
	if p == Compute {
		s.next = Reuse
	} else {
		s.next = Compute
	}
	return p
}
