package csvlab

// ProgressReporter receives populate progress: one Advance per key whose
// make call ran, one Skip per key left to another run.
// Implementations must tolerate Finish without a preceding Start.
type ProgressReporter interface {
	Start(total int)
	Advance(key string, err error)
	Skip(key string)
	Finish()
}

// NopProgress discards progress events.
type NopProgress struct{}

func (NopProgress) Start(int)             {}
func (NopProgress) Advance(string, error) {}
func (NopProgress) Skip(string)           {}
func (NopProgress) Finish()               {}
