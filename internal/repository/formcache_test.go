package repository

// ==========================================================================
// Form cache tests
// ==========================================================================

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ats-workers/internal/common/errors"
	"ats-workers/internal/common/logger"
	"ats-workers/internal/models"
)

type stubFormSource struct {
	form  *models.ApplicationForm
	err   error
	calls int
}

func (s *stubFormSource) FormByToken(ctx context.Context, formToken string) (*models.ApplicationForm, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.form, nil
}

func newFormCache(t *testing.T, source FormSource) (*CachedFormSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedFormSource(source, client, 5*time.Minute, logger.NewTestLogger(t)), mr
}

func activeForm() *models.ApplicationForm {
	return &models.ApplicationForm{
		Job:     models.Job{ID: "job-1", Title: "Platform Engineer", Status: models.JobStatusActive, FormToken: "tok-abc"},
		Company: models.Company{ID: "comp-1", Name: "Acme"},
		Questions: []models.Question{
			{ID: "q-1", JobID: "job-1", Text: "Years of Go?", Type: models.QuestionTypeText, OrderIndex: 0},
		},
	}
}

func TestCachedFormByToken_SecondReadServedFromCache(t *testing.T) {
	source := &stubFormSource{form: activeForm()}
	cache, _ := newFormCache(t, source)

	first, err := cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	second, err := cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first.Job.ID, second.Job.ID)
	assert.Len(t, second.Questions, 1)
}

func TestCachedFormByToken_UnknownTokenNotCached(t *testing.T) {
	source := &stubFormSource{err: apperrors.NewNotFoundError("job", "no job")}
	cache, _ := newFormCache(t, source)

	for i := 0; i < 2; i++ {
		_, err := cache.FormByToken(context.Background(), "tok-missing")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	}
	assert.Equal(t, 2, source.calls)
}

func TestCachedFormByToken_ExpiredEntryRefetches(t *testing.T) {
	source := &stubFormSource{form: activeForm()}
	cache, mr := newFormCache(t, source)

	_, err := cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	_, err = cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCachedFormByToken_CorruptEntryDegradesToSource(t *testing.T) {
	source := &stubFormSource{form: activeForm()}
	cache, mr := newFormCache(t, source)

	require.NoError(t, mr.Set("form:tok-abc", "{not json"))

	form, err := cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, "job-1", form.Job.ID)
	assert.Equal(t, 1, source.calls)
}

func TestInvalidate(t *testing.T) {
	source := &stubFormSource{form: activeForm()}
	cache, mr := newFormCache(t, source)

	_, err := cache.FormByToken(context.Background(), "tok-abc")
	require.NoError(t, err)
	assert.True(t, mr.Exists("form:tok-abc"))

	cache.Invalidate(context.Background(), "tok-abc")
	assert.False(t, mr.Exists("form:tok-abc"))
}
