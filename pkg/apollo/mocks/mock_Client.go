// Package mocks provides test doubles for the apollo client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	apollo "github.com/sells-group/leadgen-cli/pkg/apollo"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// PeopleAPISearch provides a mock function with given fields: ctx, q
func (_m *MockClient) PeopleAPISearch(ctx context.Context, q apollo.PeopleQuery) ([]apollo.Person, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for PeopleAPISearch")
	}

	var r0 []apollo.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, apollo.PeopleQuery) ([]apollo.Person, error)); ok {
		return rf(ctx, q)
	}
	if rf, ok := ret.Get(0).(func(context.Context, apollo.PeopleQuery) []apollo.Person); ok {
		r0 = rf(ctx, q)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]apollo.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, apollo.PeopleQuery) error); ok {
		r1 = rf(ctx, q)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PeopleSearch provides a mock function with given fields: ctx, q
func (_m *MockClient) PeopleSearch(ctx context.Context, q apollo.PeopleQuery) ([]apollo.Person, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for PeopleSearch")
	}

	var r0 []apollo.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, apollo.PeopleQuery) ([]apollo.Person, error)); ok {
		return rf(ctx, q)
	}
	if rf, ok := ret.Get(0).(func(context.Context, apollo.PeopleQuery) []apollo.Person); ok {
		r0 = rf(ctx, q)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]apollo.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, apollo.PeopleQuery) error); ok {
		r1 = rf(ctx, q)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// OrganizationSearch provides a mock function with given fields: ctx, q
func (_m *MockClient) OrganizationSearch(ctx context.Context, q apollo.OrganizationQuery) ([]apollo.Organization, error) {
	ret := _m.Called(ctx, q)

	if len(ret) == 0 {
		panic("no return value specified for OrganizationSearch")
	}

	var r0 []apollo.Organization
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, apollo.OrganizationQuery) ([]apollo.Organization, error)); ok {
		return rf(ctx, q)
	}
	if rf, ok := ret.Get(0).(func(context.Context, apollo.OrganizationQuery) []apollo.Organization); ok {
		r0 = rf(ctx, q)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]apollo.Organization)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, apollo.OrganizationQuery) error); ok {
		r1 = rf(ctx, q)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PeopleMatch provides a mock function with given fields: ctx, personID
func (_m *MockClient) PeopleMatch(ctx context.Context, personID string) (*apollo.Person, error) {
	ret := _m.Called(ctx, personID)

	if len(ret) == 0 {
		panic("no return value specified for PeopleMatch")
	}

	var r0 *apollo.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*apollo.Person, error)); ok {
		return rf(ctx, personID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *apollo.Person); ok {
		r0 = rf(ctx, personID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*apollo.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, personID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetPerson provides a mock function with given fields: ctx, personID
func (_m *MockClient) GetPerson(ctx context.Context, personID string) (*apollo.Person, error) {
	ret := _m.Called(ctx, personID)

	if len(ret) == 0 {
		panic("no return value specified for GetPerson")
	}

	var r0 *apollo.Person
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*apollo.Person, error)); ok {
		return rf(ctx, personID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *apollo.Person); ok {
		r0 = rf(ctx, personID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*apollo.Person)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, personID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreateContact provides a mock function with given fields: ctx, in
func (_m *MockClient) CreateContact(ctx context.Context, in apollo.ContactInput) (string, error) {
	ret := _m.Called(ctx, in)

	if len(ret) == 0 {
		panic("no return value specified for CreateContact")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, apollo.ContactInput) (string, error)); ok {
		return rf(ctx, in)
	}
	if rf, ok := ret.Get(0).(func(context.Context, apollo.ContactInput) string); ok {
		r0 = rf(ctx, in)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, apollo.ContactInput) error); ok {
		r1 = rf(ctx, in)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// FindContactByEmail provides a mock function with given fields: ctx, email
func (_m *MockClient) FindContactByEmail(ctx context.Context, email string) (string, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for FindContactByEmail")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, email)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, email)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreateContactList provides a mock function with given fields: ctx, name
func (_m *MockClient) CreateContactList(ctx context.Context, name string) (string, error) {
	ret := _m.Called(ctx, name)

	if len(ret) == 0 {
		panic("no return value specified for CreateContactList")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, name)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// AddContactsToList provides a mock function with given fields: ctx, listID, contactIDs
func (_m *MockClient) AddContactsToList(ctx context.Context, listID string, contactIDs []string) error {
	ret := _m.Called(ctx, listID, contactIDs)

	if len(ret) == 0 {
		panic("no return value specified for AddContactsToList")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, []string) error); ok {
		r0 = rf(ctx, listID, contactIDs)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
