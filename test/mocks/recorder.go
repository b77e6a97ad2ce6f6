package mocks

import (
	"context"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/stretchr/testify/mock"
)

// Recorder is a mock implementation of service.Recorder.
type Recorder struct {
	mock.Mock
}

// SaveResult provides a mock function with given fields: ctx, batchID, rowNumber, address, result.
func (_m *Recorder) SaveResult(
	ctx context.Context,
	batchID string,
	rowNumber int,
	address string,
	result *models.GeocodeResult,
) error {
	ret := _m.Called(ctx, batchID, rowNumber, address, result)
	return ret.Error(0)
}

// SaveFailure provides a mock function with given fields: ctx, batchID, rowNumber, address, errMsg.
func (_m *Recorder) SaveFailure(ctx context.Context, batchID string, rowNumber int, address string, errMsg string) error {
	ret := _m.Called(ctx, batchID, rowNumber, address, errMsg)
	return ret.Error(0)
}

// NewRecorder creates a new instance of Recorder. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewRecorder(t interface {
	mock.TestingT
	Cleanup(func())
}) *Recorder {
	m := &Recorder{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
