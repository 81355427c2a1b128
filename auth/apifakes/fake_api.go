package authapifakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/retail-console/auth"
)

var _ auth.API = (*FakeAPI)(nil)

// FakeAPI answers login calls from scripted responses and records what it was sent
type FakeAPI struct {
	LoginResp  *auth.LoginResponse
	LoginErr   error
	VerifyResp *auth.LoginResponse
	VerifyErr  error
	LogoutErr  error

	lock        sync.Mutex
	loginCalls  []auth.LoginRequest
	verifyCalls []auth.VerifyRequest
	logoutCalls int
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{}
}

func (f *FakeAPI) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginCalls = append(f.loginCalls, req)
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.LoginResp, nil
}

func (f *FakeAPI) Verify(_ context.Context, req auth.VerifyRequest) (*auth.LoginResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.verifyCalls = append(f.verifyCalls, req)
	if f.VerifyErr != nil {
		return nil, f.VerifyErr
	}
	return f.VerifyResp, nil
}

func (f *FakeAPI) Logout(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.logoutCalls++
	return f.LogoutErr
}

func (f *FakeAPI) LoginCalls() []auth.LoginRequest {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]auth.LoginRequest(nil), f.loginCalls...)
}

func (f *FakeAPI) VerifyCalls() []auth.VerifyRequest {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]auth.VerifyRequest(nil), f.verifyCalls...)
}

func (f *FakeAPI) LogoutCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.logoutCalls
}
