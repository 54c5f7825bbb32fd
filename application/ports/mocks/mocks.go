package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cogmap/application/graphsync"
	"cogmap/application/ports"
)

// MockTransport is a mock implementation of ports.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, frame []byte) error {
	args := m.Called(ctx, frame)
	return args.Error(0)
}

// MockRenderSink is a mock implementation of ports.RenderSink
type MockRenderSink struct {
	mock.Mock
}

func (m *MockRenderSink) Render(view graphsync.View) {
	m.Called(view)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(notice ports.Notice) {
	m.Called(notice)
}

// MockChatSink is a mock implementation of ports.ChatSink
type MockChatSink struct {
	mock.Mock
}

func (m *MockChatSink) Answer(text string) {
	m.Called(text)
}

func (m *MockChatSink) Failure(message string) {
	m.Called(message)
}

// MockSnapshotStore is a mock implementation of ports.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot ports.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotStore) Load(ctx context.Context) (ports.Snapshot, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.Snapshot), args.Bool(1), args.Error(2)
}
