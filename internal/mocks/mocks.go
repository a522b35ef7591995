// Package mocks holds testify mocks for the interfaces in model and in the
// HTTP layer. Constructors register the mock with t and assert expectations
// on cleanup.
package mocks

import "github.com/stretchr/testify/mock"

// T is the subset of testing.T the constructors need.
type T interface {
	mock.TestingT
	Cleanup(func())
}

func register(m *mock.Mock, t T) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}
