package metrics

type Counter interface {
	Inc()

	Add(delta float64)
}

type Factory interface {
	// CreateCounter returns the counter with the given name, creating it on first use.
	CreateCounter(name string, description string) (Counter, error)

	Start() error

	Stop() error
}

// NoopFactory creates counters that record nothing. It is used when metrics are disabled.
type NoopFactory struct{}

func (NoopFactory) CreateCounter(string, string) (Counter, error) {
	return noopCounter{}, nil
}

func (NoopFactory) Start() error {
	return nil
}

func (NoopFactory) Stop() error {
	return nil
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func (noopCounter) Add(float64) {}
