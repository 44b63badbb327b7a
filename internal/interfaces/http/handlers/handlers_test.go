package handlers

import (
	"context"

	"github.com/ipede/authorization-service/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAuthorizeService struct {
	mock.Mock
}

func (m *MockAuthorizeService) Authorize(ctx context.Context, req *domain.AuthorizeRequest) (*domain.AuthorizeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizeResult), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Exchange(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

type MockOIDCService struct {
	mock.Mock
}

func (m *MockOIDCService) UserInfo(ctx context.Context, accessToken string) (map[string]interface{}, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockOIDCService) GetJWKS(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockOIDCService) GetOpenIDConfiguration(ctx context.Context) map[string]interface{} {
	args := m.Called(ctx)
	return args.Get(0).(map[string]interface{})
}
