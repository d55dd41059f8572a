package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/repository"
)

func TestDetectLeakageCreatesRecordPerEnrollment(t *testing.T) {
	env := newTestEnv(t)
	clientA := env.seedClient(t, 1)
	clientB := env.seedClient(t, 1)
	class := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 50, 3)
	env.seedEnrollment(t, class.ID, clientA.ID)
	env.seedEnrollment(t, class.ID, clientB.ID)

	result, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Detected)
	require.Len(t, result.Records, 2)
	for _, record := range result.Records {
		assert.Equal(t, 50.0, record.AmountLost)
		assert.Equal(t, string(models.LeakageCancellationNoShow), record.LeakageType)
		assert.False(t, record.Recovered)
	}

	// One marker event per record.
	markers, err := env.events.Query(repository.EventFilters{
		Types: []string{string(models.EventRevenueLeakageDetected)},
	})
	require.NoError(t, err)
	assert.Len(t, markers, 2)

	// Admin notified once per record.
	assert.Len(t, env.sender.Sent, 2)
}

func TestDetectLeakageIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 1)
	class := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 50, 3)
	env.seedEnrollment(t, class.ID, client.ID)

	first, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Detected)

	second, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Detected)

	var count int64
	require.NoError(t, env.db.Model(&models.RevenueLeakageRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDetectLeakageSkipsFreeAndCompletedClasses(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 1)

	free := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 0, 3)
	env.seedEnrollment(t, free.ID, client.ID)

	completed := env.seedClass(t, "trainer-1", models.ClassStatusCompleted, 50, 3)
	env.seedEnrollment(t, completed.ID, client.ID)

	result, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Detected)
}

func TestDetectLeakageRespectsPeriod(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 1)
	old := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 50, 45)
	env.seedEnrollment(t, old.ID, client.ID)

	result, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Detected)

	result, err = env.leakage.DetectLeakage(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Detected)

	_, err = env.leakage.DetectLeakage(context.Background(), 0)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUnresolvedUniqueIndexRejectsSecondInsert(t *testing.T) {
	env := newTestEnv(t)

	record := func() *models.RevenueLeakageRecord {
		return &models.RevenueLeakageRecord{
			ClientID:     "client-1",
			ClassID:      "class-1",
			EnrollmentID: "enrollment-1",
			LeakageType:  string(models.LeakageCancellationNoShow),
			AmountLost:   50,
			DetectedAt:   time.Now(),
		}
	}

	require.NoError(t, env.db.Create(record()).Error)
	err := env.db.Create(record()).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSummarize(t *testing.T) {
	env := newTestEnv(t)
	clientA := env.seedClient(t, 1)
	clientB := env.seedClient(t, 1)
	class := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 50, 3)
	env.seedEnrollment(t, class.ID, clientA.ID)
	env.seedEnrollment(t, class.ID, clientB.ID)

	result, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	_, err = env.leakage.RecordRecovery(result.Records[0].ID, 25)
	require.NoError(t, err)

	summary, records, err := env.leakage.Summarize(30, true)
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.TotalLost)
	assert.Equal(t, 25.0, summary.TotalRecovered)
	assert.Equal(t, 75.0, summary.NetLoss)
	assert.Equal(t, 25.0, summary.RecoveryRate)
	assert.Equal(t, 100.0, summary.ByType[string(models.LeakageCancellationNoShow)])
	assert.Len(t, records, 2)

	// Excluding recovered records narrows the list and the totals.
	summary, records, err = env.leakage.Summarize(30, false)
	require.NoError(t, err)
	assert.Equal(t, 50.0, summary.TotalLost)
	assert.Len(t, records, 1)
}

func TestSummarizeEmptyPeriod(t *testing.T) {
	env := newTestEnv(t)

	summary, records, err := env.leakage.Summarize(30, true)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalLost)
	assert.Zero(t, summary.RecoveryRate)
	assert.Empty(t, records)
}

func TestRecordRecovery(t *testing.T) {
	env := newTestEnv(t)
	client := env.seedClient(t, 1)
	class := env.seedClass(t, "trainer-1", models.ClassStatusCancelled, 50, 3)
	env.seedEnrollment(t, class.ID, client.ID)

	result, err := env.leakage.DetectLeakage(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	recordID := result.Records[0].ID

	var validationErr *models.ValidationError

	_, err = env.leakage.RecordRecovery(recordID, 0)
	require.ErrorAs(t, err, &validationErr)

	_, err = env.leakage.RecordRecovery(recordID, 60)
	require.ErrorAs(t, err, &validationErr)

	recovered, err := env.leakage.RecordRecovery(recordID, 50)
	require.NoError(t, err)
	assert.True(t, recovered.Recovered)
	assert.Equal(t, 50.0, recovered.RecoveryAmount)
	require.NotNil(t, recovered.RecoveredAt)

	// Recovery is terminal.
	_, err = env.leakage.RecordRecovery(recordID, 10)
	require.ErrorAs(t, err, &validationErr)

	_, err = env.leakage.RecordRecovery("no-such-record", 10)
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
