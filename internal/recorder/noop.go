package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunSnapshot) (int64, error) { return 0, nil }
func (n *NoopRecorder) LastRun() (*RunSnapshot, error)          { return nil, nil }
func (n *NoopRecorder) Close() error                            { return nil }
