package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

type NetworkRepositoryMock struct {
	mock.Mock
}

func (m *NetworkRepositoryMock) SaveNetwork(ctx context.Context, rec models.NetworkRecord, windows []models.WindowRecord) error {
	args := m.Called(ctx, rec, windows)
	return args.Error(0)
}

func (m *NetworkRepositoryMock) ListNetworks(ctx context.Context, userName string) ([]models.NetworkRecord, error) {
	args := m.Called(ctx, userName)
	var list []models.NetworkRecord
	if val := args.Get(0); val != nil {
		list = val.([]models.NetworkRecord)
	}
	return list, args.Error(1)
}

func (m *NetworkRepositoryMock) ListWindows(ctx context.Context, networkUUID string) ([]models.WindowRecord, error) {
	args := m.Called(ctx, networkUUID)
	var list []models.WindowRecord
	if val := args.Get(0); val != nil {
		list = val.([]models.WindowRecord)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) AppendMessage(ctx context.Context, rec models.MessageRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) ListWindowMessages(ctx context.Context, userName, networkUUID, window string, limit int) ([]models.MessageRecord, error) {
	args := m.Called(ctx, userName, networkUUID, window, limit)
	var recs []models.MessageRecord
	if val := args.Get(0); val != nil {
		recs = val.([]models.MessageRecord)
	}
	return recs, args.Error(1)
}

type BacklogSinkMock struct {
	mock.Mock
}

func (m *BacklogSinkMock) BacklogLoaded(s *state.Session, w *state.Window, msgs []models.Message) {
	m.Called(s, w, msgs)
}
