package mocks

import (
	"context"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/stretchr/testify/mock"
)

// Provider is a mock implementation of geocoding.Provider.
type Provider struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, req.
func (_m *Provider) Geocode(ctx context.Context, req geocoding.Request) (*models.GeocodeResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *models.GeocodeResult
	if rf, ok := ret.Get(0).(func(context.Context, geocoding.Request) *models.GeocodeResult); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GeocodeResult)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, geocoding.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
