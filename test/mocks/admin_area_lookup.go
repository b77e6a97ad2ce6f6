package mocks

import (
	"context"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/stretchr/testify/mock"
)

// AdminAreaLookup is a mock implementation of geocoding.AdminAreaLookup.
type AdminAreaLookup struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, point.
func (_m *AdminAreaLookup) Lookup(ctx context.Context, point models.Coordinates) (*models.AdminArea, error) {
	ret := _m.Called(ctx, point)

	var r0 *models.AdminArea
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.AdminArea)
	}

	return r0, ret.Error(1)
}

// NewAdminAreaLookup creates a new instance of AdminAreaLookup. It also registers a testing interface
// on the mock and a cleanup function to assert the mocks expectations.
func NewAdminAreaLookup(t interface {
	mock.TestingT
	Cleanup(func())
}) *AdminAreaLookup {
	m := &AdminAreaLookup{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
