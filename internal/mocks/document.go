package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/service/document"
)

type DocumentStore struct {
	mock.Mock
}

func (m *DocumentStore) Put(ctx context.Context, folder string, upload document.Upload) (domain.StoredFile, error) {
	args := m.Called(ctx, folder, upload)
	return args.Get(0).(domain.StoredFile), args.Error(1)
}

func (m *DocumentStore) Remove(ctx context.Context, storedName string) error {
	args := m.Called(ctx, storedName)
	return args.Error(0)
}
