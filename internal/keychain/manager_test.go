// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRoundTrip(t *testing.T) {
	m := NewWithKeyring(keyring.NewArrayKeyring(nil))

	_, err := m.LoadSession()
	assert.ErrorIs(t, err, ErrNotFound)

	state, err := m.LoadAuthState()
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, m.SaveSession("00D!sess"))
	require.NoError(t, m.SaveRefreshToken("5Aep861"))
	require.NoError(t, m.SaveAuthState([]byte(`{"logged_in":true}`)))

	sess, err := m.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "00D!sess", sess)

	rt, err := m.LoadRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "5Aep861", rt)

	state, err = m.LoadAuthState()
	require.NoError(t, err)
	assert.JSONEq(t, `{"logged_in":true}`, string(state))
}

func TestManagerClearAuth(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: KeySessionID, Data: []byte("00D!sess")},
		{Key: KeyRefreshToken, Data: []byte("rt")},
		{Key: KeyAuthState, Data: []byte("{}")},
		{Key: "unrelated", Data: []byte("keep")},
	})
	m := NewWithKeyring(ring)

	require.NoError(t, m.ClearAuth())

	keys, err := ring.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated"}, keys)

	_, err = m.LoadRefreshToken()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerEmptyValueIsNotFound(t *testing.T) {
	m := NewWithKeyring(keyring.NewArrayKeyring([]keyring.Item{{Key: KeySessionID, Data: nil}}))
	_, err := m.LoadSession()
	assert.ErrorIs(t, err, ErrNotFound)
}
