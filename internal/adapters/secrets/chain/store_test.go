package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "lessonplan/access_token"

type scriptedStore struct {
	value     string
	getErr    error
	putErr    error
	deleteErr error

	getCalls    int
	putCalls    int
	deleteCalls int
}

func (s *scriptedStore) Get(_ context.Context, _ string) (string, error) {
	s.getCalls++
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.value, nil
}

func (s *scriptedStore) Put(_ context.Context, _ string, value string) error {
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.value = value
	return nil
}

func (s *scriptedStore) Delete(_ context.Context, _ string) error {
	s.deleteCalls++
	return s.deleteErr
}

func TestNewStoreRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, &scriptedStore{})
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStore(&scriptedStore{}, nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{value: "from-pass"}
	fallback := &scriptedStore{value: "from-file"}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
	assert.Equal(t, 0, fallback.getCalls)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{getErr: errors.New("pass unavailable")}
	fallback := &scriptedStore{value: "from-file"}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{getErr: errors.New("pass failed")}
	fallback := &scriptedStore{getErr: errors.New("file failed")}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{putErr: errors.New("pass failed")}
	fallback := &scriptedStore{}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), testKey, "secret"))
	assert.Equal(t, "secret", fallback.value)
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{}
	fallback := &scriptedStore{}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), testKey, "secret"))
	assert.Equal(t, 0, fallback.putCalls)
}

func TestStoreDeleteAlsoClearsFallbackCopy(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{}
	fallback := &scriptedStore{value: "stale-copy"}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), testKey))
	assert.Equal(t, 1, primary.deleteCalls)
	assert.Equal(t, 1, fallback.deleteCalls, "a removed credential must not resurface from the fallback")
}

func TestStoreDeleteFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{deleteErr: errors.New("pass failed")}
	fallback := &scriptedStore{}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), testKey))
	assert.Equal(t, 1, fallback.deleteCalls)
}

func TestStoreGetDoesNotFallBackOnCanceledContext(t *testing.T) {
	t.Parallel()

	primary := &scriptedStore{getErr: context.Canceled}
	fallback := &scriptedStore{value: "from-file"}
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, fallback.getCalls)
}
