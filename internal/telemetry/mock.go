package telemetry

import "context"

var _ Client = (*MockClient)(nil)

type MockClient struct {
	attrs   map[string]string
	start   func(EventType) error
	success func(EventType) error
	failure func(EventType, error) error
	wrap    func(EventType, func() error) error
}

func (m *MockClient) Start(_ context.Context, eventType EventType) error {
	if m.start == nil {
		return nil
	}
	return m.start(eventType)
}

func (m *MockClient) Success(_ context.Context, eventType EventType) error {
	if m.success == nil {
		return nil
	}
	return m.success(eventType)
}

func (m *MockClient) Failure(_ context.Context, eventType EventType, err error) error {
	if m.failure == nil {
		return nil
	}
	return m.failure(eventType, err)
}

func (m *MockClient) Attr(key, val string) {
	if m.attrs == nil {
		m.attrs = map[string]string{}
	}
	m.attrs[key] = val
}

func (m *MockClient) User() string {
	return "test-user"
}

func (m *MockClient) Wrap(_ context.Context, et EventType, f func() error) error {
	if m.wrap == nil {
		return f()
	}
	return m.wrap(et, f)
}
