package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/insights/internal/models"
)

func TestComputeTrainerMetrics(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 1)

	// 10 classes in the period: 8 completed at 30 each, 2 cancelled.
	for i := 0; i < 8; i++ {
		class := env.seedClass(t, "trainer-1", models.ClassStatusCompleted, 30, 10+i)
		enrollment := env.seedEnrollment(t, class.ID, client.ID)
		// 6 of 8 attended.
		env.seedAttendance(t, enrollment, i < 6, 10+i)
	}
	for i := 0; i < 2; i++ {
		env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 30, 5+i)
	}

	start := time.Now().AddDate(0, 0, -30)
	end := time.Now()

	metrics, err := env.perf.Compute("trainer-1", start, end)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.Equal(t, 10, metrics.TotalClasses)
	assert.Equal(t, 8, metrics.CompletedClasses)
	assert.Equal(t, 2, metrics.CancelledClasses)
	assert.InDelta(t, 20.0, metrics.CancellationRate, 0.001)
	assert.InDelta(t, 75.0, metrics.AverageAttendanceRate, 0.001)
	assert.Equal(t, 240.0, metrics.RevenueGenerated)
	assert.Nil(t, metrics.ClientSatisfactionScore)
}

func TestComputeSatisfactionFromRatings(t *testing.T) {
	env := newTestEnv(t)
	class := env.seedClass(t, "trainer-1", models.ClassStatusCompleted, 30, 10)

	for _, rating := range []int{4, 5, 3} {
		r := rating
		feedback := &models.Feedback{
			TrainerID: "trainer-1",
			ClassID:   class.ID,
			Type:      models.FeedbackTypeRating,
			Rating:    &r,
			CreatedAt: time.Now().AddDate(0, 0, -10),
		}
		require.NoError(t, env.db.Create(feedback).Error)
	}
	// A rating-less text record does not skew the average.
	require.NoError(t, env.db.Create(&models.Feedback{
		TrainerID: "trainer-1",
		Type:      models.FeedbackTypeText,
		Text:      "great class",
		CreatedAt: time.Now().AddDate(0, 0, -10),
	}).Error)

	metrics, err := env.perf.Compute("trainer-1", time.Now().AddDate(0, 0, -30), time.Now())
	require.NoError(t, err)
	require.NotNil(t, metrics)
	require.NotNil(t, metrics.ClientSatisfactionScore)
	assert.InDelta(t, 0.8, *metrics.ClientSatisfactionScore, 0.001)
}

func TestComputeNoClassesYieldsNothing(t *testing.T) {
	env := newTestEnv(t)

	metrics, err := env.perf.Compute("trainer-1", time.Now().AddDate(0, 0, -30), time.Now())
	require.NoError(t, err)
	assert.Nil(t, metrics)

	var count int64
	require.NoError(t, env.db.Model(&models.TrainerPerformanceMetrics{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestComputeRejectsInvertedPeriod(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.perf.Compute("trainer-1", time.Now(), time.Now().AddDate(0, 0, -1))
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestComputeUpsertsPerPeriod(t *testing.T) {
	env := newTestEnv(t)
	env.seedClass(t, "trainer-1", models.ClassStatusCompleted, 30, 10)

	start := time.Now().AddDate(0, 0, -30).Truncate(time.Minute)
	end := time.Now().Truncate(time.Minute)

	_, err := env.perf.Compute("trainer-1", start, end)
	require.NoError(t, err)

	// Recomputing the same period overwrites, it never duplicates.
	env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 30, 5)
	metrics, err := env.perf.Compute("trainer-1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.TotalClasses)

	var count int64
	require.NoError(t, env.db.Model(&models.TrainerPerformanceMetrics{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestComputeForPeriodAllTrainers(t *testing.T) {
	env := newTestEnv(t)
	env.seedClass(t, "trainer-1", models.ClassStatusCompleted, 30, 10)
	env.seedClass(t, "trainer-2", models.ClassStatusCancelled, 30, 10)
	// Outside the window.
	env.seedClass(t, "trainer-3", models.ClassStatusCompleted, 30, 60)

	metricsList, err := env.perf.ComputeForPeriod("", 30)
	require.NoError(t, err)
	require.Len(t, metricsList, 2)

	byTrainer := map[string]models.TrainerPerformanceMetrics{}
	for _, m := range metricsList {
		byTrainer[m.TrainerID] = m
	}
	assert.InDelta(t, 0.0, byTrainer["trainer-1"].CancellationRate, 0.001)
	assert.InDelta(t, 100.0, byTrainer["trainer-2"].CancellationRate, 0.001)

	_, err = env.perf.ComputeForPeriod("", -1)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}
