package metrics

// Sink receives projected records.
//
// Publish is called once per answered (or timed-out) query. Forget is called
// when a bulb departs so the sink can drop whatever it holds for it.
type Sink interface {
	Publish(r Record)
	Forget(deviceID string)
}

// MultiSink fans records out to several sinks in order
type MultiSink []Sink

// Publish forwards the record to every sink
func (m MultiSink) Publish(r Record) {
	for _, s := range m {
		s.Publish(r)
	}
}

// Forget forwards to every sink
func (m MultiSink) Forget(deviceID string) {
	for _, s := range m {
		s.Forget(deviceID)
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) Publish(Record) {}
func (Nop) Forget(string) {}
