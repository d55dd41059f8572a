package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fitpulse/insights/internal/events"
	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/pkg/config"
)

// newTestDB opens an isolated in-memory database with the production schema,
// partial unique indexes included.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.MigrateAll(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:             "test-secret",
		TokenLifetime:         time.Hour,
		RiskMediumDays:        30,
		RiskHighDays:          60,
		RiskCriticalDays:      90,
		RiskRevenueWindowDays: 90,
		LeakagePeriodDays:     30,
	}
}

// testEnv wires the full service graph over one test database, with the
// mock email sender so notification side effects are observable.
type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	bus      *events.Bus
	sender   *MockEmailSender
	events   *EventService
	atRisk   *AtRiskService
	leakage  *LeakageService
	perf     *PerformanceService
	feedback *FeedbackService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig()
	bus := events.NewBus()
	sender := NewMockEmailSender()
	notifier := NewNotificationService(sender, "admin@fitpulse.app")

	eventSvc := NewEventService(repository.NewEventRepository(db), bus)
	studioRepo := repository.NewStudioRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)

	atRisk := NewAtRiskService(
		repository.NewAtRiskRepository(db),
		repository.NewEventRepository(db),
		studioRepo,
		eventSvc,
		notifier,
		cfg,
	)
	leakage := NewLeakageService(repository.NewLeakageRepository(db), studioRepo, eventSvc, notifier)
	perf := NewPerformanceService(repository.NewPerformanceRepository(db), studioRepo, feedbackRepo)
	feedback := NewFeedbackService(feedbackRepo)

	dispatcher := NewDispatcher(atRisk, notifier)
	dispatcher.Register(bus)

	return &testEnv{
		db:       db,
		cfg:      cfg,
		bus:      bus,
		sender:   sender,
		events:   eventSvc,
		atRisk:   atRisk,
		leakage:  leakage,
		perf:     perf,
		feedback: feedback,
	}
}

func (e *testEnv) seedClient(t *testing.T, joinedDaysAgo int) *models.Client {
	t.Helper()
	client := &models.Client{
		Name:     "Test Client",
		Email:    "client-" + uuid.New().String() + "@example.com",
		JoinedAt: time.Now().AddDate(0, 0, -joinedDaysAgo),
		IsActive: true,
	}
	require.NoError(t, e.db.Create(client).Error)
	return client
}

func (e *testEnv) seedClass(t *testing.T, trainerID, status string, price float64, scheduledDaysAgo int) *models.Class {
	t.Helper()
	class := &models.Class{
		Name:        "Test Class",
		TrainerID:   trainerID,
		Status:      status,
		Price:       price,
		ScheduledAt: time.Now().AddDate(0, 0, -scheduledDaysAgo),
	}
	require.NoError(t, e.db.Create(class).Error)
	return class
}

func (e *testEnv) seedEnrollment(t *testing.T, classID, clientID string) *models.Enrollment {
	t.Helper()
	enrollment := &models.Enrollment{ClassID: classID, ClientID: clientID}
	require.NoError(t, e.db.Create(enrollment).Error)
	return enrollment
}

func (e *testEnv) seedAttendance(t *testing.T, enrollment *models.Enrollment, present bool, recordedDaysAgo int) {
	t.Helper()
	record := &models.AttendanceRecord{
		EnrollmentID: enrollment.ID,
		ClassID:      enrollment.ClassID,
		ClientID:     enrollment.ClientID,
		Present:      present,
		RecordedAt:   time.Now().AddDate(0, 0, -recordedDaysAgo),
	}
	require.NoError(t, e.db.Create(record).Error)
}

