// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dispatcher

import (
	context "context"

	model "github.com/ioconnectservices/cloudwatch-dispatch/cwlogs/model"
	mock "github.com/stretchr/testify/mock"
)

type MockTransport struct {
	mock.Mock
}

func (_m *MockTransport) Send(ctx context.Context, dst model.Destination, batch []model.Record) error {
	ret := _m.Called(ctx, dst, batch)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Destination, []model.Record) error); ok {
		r0 = rf(ctx, dst, batch)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockTransport creates a new instance of MockTransport. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransport {
	mock := &MockTransport{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
