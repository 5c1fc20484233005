// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/keychain"
)

// fakeAPI answers the login exchanges; every other method panics.
type fakeAPI struct {
	backend.API
	result backend.LoginResult
	err    error
	logins int
}

func (f *fakeAPI) Login(context.Context, string, string, string, string) (backend.LoginResult, error) {
	f.logins++
	return f.result, f.err
}

func (f *fakeAPI) OAuthLogin(context.Context, string, string, string, string) (backend.LoginResult, error) {
	f.logins++
	return f.result, f.err
}

func newService(api backend.API) (*Service, *keychain.Manager) {
	km := keychain.NewWithKeyring(keyring.NewArrayKeyring(nil))
	s := NewService(api, km, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, km
}

func TestLogin_Password(t *testing.T) {
	api := &fakeAPI{result: backend.LoginResult{SessionID: "00Dx0000000BV7z!AQ", Instance: "na1"}}
	s, km := newService(api)

	cfg := config.Defaults()
	cfg.Username, cfg.Password = "user@example.com", "pw"

	st, err := s.Login(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, State{
		LoggedIn:   true,
		Username:   "user@example.com",
		Method:     "password",
		Host:       "login.salesforce.com",
		Instance:   "na1",
		OrgID:      "00Dx0000000BV7z",
		APIVersion: "33.0",
		LoggedInAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}, st)

	id, err := km.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "00Dx0000000BV7z!AQ", id)

	_, err = km.LoadRefreshToken()
	assert.ErrorIs(t, err, keychain.ErrNotFound)

	loaded, ok, err := s.WhoAmI()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, st, loaded)
}

func TestLogin_OAuthStoresRefreshToken(t *testing.T) {
	api := &fakeAPI{result: backend.LoginResult{SessionID: "00D!tok", Instance: "eu2"}}
	s, km := newService(api)

	cfg := config.Defaults()
	cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken = "ci", "cs", "rt-1"

	st, err := s.Login(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "oauth", st.Method)

	rt, err := km.LoadRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "rt-1", rt)
}

func TestLogin_FaultStoresNothing(t *testing.T) {
	api := &fakeAPI{err: &bferrors.SoapLoginFault{Message: "INVALID_LOGIN: bad"}}
	s, km := newService(api)

	cfg := config.Defaults()
	cfg.Username, cfg.Password = "u", "bad"

	_, err := s.Login(context.Background(), cfg)
	assert.Equal(t, bferrors.SoapFault, bferrors.KindOf(err))

	_, err = km.LoadSession()
	assert.ErrorIs(t, err, keychain.ErrNotFound)
	_, ok, err := s.WhoAmI()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	api := &fakeAPI{result: backend.LoginResult{SessionID: "00D!stored", Instance: "eu2"}}
	s, _ := newService(api)

	login := config.Defaults()
	login.ClientID, login.ClientSecret, login.RefreshToken = "ci", "cs", "rt-stored"
	_, err := s.Login(context.Background(), login)
	require.NoError(t, err)

	cfg, err := s.Apply(config.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "00D!stored", cfg.SessionID)
	assert.Equal(t, "eu2", cfg.Instance)
	assert.Equal(t, "rt-stored", cfg.RefreshToken)

	explicit := config.Defaults()
	explicit.Username, explicit.Password = "u", "p"
	explicit.RefreshToken = "rt-env"
	cfg, err = s.Apply(explicit)
	require.NoError(t, err)
	assert.Empty(t, cfg.SessionID, "explicit credentials win over a stored session")
	assert.Equal(t, "rt-env", cfg.RefreshToken)
}

func TestLogout(t *testing.T) {
	api := &fakeAPI{result: backend.LoginResult{SessionID: "00D!s", Instance: "na1"}}
	s, km := newService(api)

	cfg := config.Defaults()
	cfg.Username, cfg.Password = "u", "p"
	_, err := s.Login(context.Background(), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Logout())

	_, ok, err := s.WhoAmI()
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = km.LoadSession()
	assert.ErrorIs(t, err, keychain.ErrNotFound)

	applied, err := s.Apply(config.Defaults())
	require.NoError(t, err)
	assert.Empty(t, applied.SessionID)
}
