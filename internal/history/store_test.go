package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/testrig/internal/model"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s := openMemory(t)
	tc := &model.TestCase{Name: "health", Type: model.TypeAPI}
	result := model.NewResult(true, 42*time.Millisecond, "")
	result.APIPayload = &model.APIPayload{
		Response:   &model.ResponseSnapshot{Status: 200, StatusText: "OK"},
		Assertions: []model.AssertionResult{{Type: model.AssertStatus, Passed: true, Expected: "< 400", Actual: float64(200)}},
	}

	rec, err := s.Put(tc, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), result)
	require.NoError(t, err)
	assert.Equal(t, "1", rec.ID)

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "health", got.Name)
	assert.Equal(t, model.TypeAPI, got.Type)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Success)
	assert.Equal(t, int64(42), got.Result.Duration)
	require.NotNil(t, got.Result.APIPayload)
	assert.Equal(t, 200, got.Result.Response.Status)
	assert.Len(t, got.Result.Assertions, 1)
	assert.Nil(t, got.Result.LoadPayload)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openMemory(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.Put(&model.TestCase{Name: name, Type: model.TypeLoad}, time.Now(), model.NewResult(false, 0, "boom"))
		require.NoError(t, err)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].Name, all[1].Name, all[2].Name})
	assert.Equal(t, "boom", all[0].Result.ErrorMessage())

	two, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestStore_GetUnknown(t *testing.T) {
	s := openMemory(t)

	_, err := s.Get("99")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Get("not-a-number")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	require.NoError(t, err)
	_, err = s.Put(&model.TestCase{Name: "kept", Type: model.TypeUI}, time.Now(), model.NewResult(true, 0, ""))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].Name)

	rec, err := s.Put(&model.TestCase{Name: "next", Type: model.TypeUI}, time.Now(), model.NewResult(true, 0, ""))
	require.NoError(t, err)
	assert.NotEqual(t, runs[0].ID, rec.ID)
}
