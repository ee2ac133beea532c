//go:build !production

package testutil

import "github.com/stretchr/testify/mock"

// MockStatus 服务器状态 mock
type MockStatus struct {
	mock.Mock
}

func (m *MockStatus) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}
