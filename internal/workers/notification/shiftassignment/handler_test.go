package shiftassignment

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medishift-notifications/internal/common/errors"
	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/models"
	"medishift-notifications/internal/store"
)

type mockEmailSender struct {
	calls   int
	lastMsg graph.Message
}

func (m *mockEmailSender) Send(ctx context.Context, msg graph.Message) (*models.SendOutcome, error) {
	m.calls++
	m.lastMsg = msg
	return &models.SendOutcome{Success: true, Method: models.MethodEmail, Recipients: msg.To}, nil
}

type mockSMSSender struct {
	calls       int
	lastTo      []string
	lastMessage string
}

func (m *mockSMSSender) Send(ctx context.Context, to []string, message string) (*models.SendOutcome, error) {
	m.calls++
	m.lastTo = to
	m.lastMessage = message
	return &models.SendOutcome{Success: true, Method: models.MethodSMS, Recipients: to}, nil
}

type serviceFixture struct {
	service *Service
	email   *mockEmailSender
	sms     *mockSMSSender
	sqlMock sqlmock.Sqlmock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	email := &mockEmailSender{}
	sms := &mockSMSSender{}

	service := NewService(ServiceDependencies{
		Logger:   logger.NewNoOpLogger(),
		Email:    email,
		SMS:      sms,
		Logs:     store.NewNotificationLogs(db, nil, "notification-logs", logger.NewNoOpLogger()),
		Profiles: store.NewProfiles(db, "+41"),
	}, DefaultConfig())

	return &serviceFixture{service: service, email: email, sms: sms, sqlMock: sqlMock}
}

func (f *serviceFixture) expectProfile(email, phone, shiftPref string) {
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles WHERE uid").
		WithArgs("worker-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"uid", "first_name", "last_name", "email", "phone",
			"worker_type", "canton", "verified", "pref_shift_assignment",
		}).AddRow("worker-1", "Ada", "Keller", email, phone, "nurse", "ZH", true, shiftPref))
}

func (f *serviceFixture) expectLogInsert() {
	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func shiftInput(method string) *Input {
	return &Input{
		WorkerID: "worker-1",
		ShiftData: map[string]interface{}{
			"facilityName": "Kantonsspital Winterthur",
			"shiftDate":    "14 Sep 2026",
			"startTime":    "07:00",
			"endTime":      "15:30",
		},
		Method: method,
		Auth:   models.AuthContext{UID: "scheduler-1", Authenticated: true},
	}
}

func TestExecuteValidation(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		f := newServiceFixture(t)
		input := shiftInput("")
		input.Auth.Authenticated = false

		_, err := f.service.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.CodeOf(err))
	})

	t.Run("missing workerId", func(t *testing.T) {
		f := newServiceFixture(t)
		input := shiftInput("")
		input.WorkerID = ""

		_, err := f.service.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidArgument, apperrors.CodeOf(err))
	})

	t.Run("missing shiftData", func(t *testing.T) {
		f := newServiceFixture(t)
		input := shiftInput("")
		input.ShiftData = nil

		_, err := f.service.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidArgument, apperrors.CodeOf(err))
	})

	t.Run("unknown worker", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles WHERE uid").
			WithArgs("worker-1").
			WillReturnRows(sqlmock.NewRows([]string{
				"uid", "first_name", "last_name", "email", "phone",
				"worker_type", "canton", "verified", "pref_shift_assignment",
			}))

		_, err := f.service.Execute(context.Background(), shiftInput(""))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	})
}

func TestExecuteChannelResolution(t *testing.T) {
	t.Run("explicit method wins over preference", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectProfile("ada@medishift.ch", "+41791234567", models.MethodEmail)
		f.expectLogInsert()

		output, err := f.service.Execute(context.Background(), shiftInput(models.MethodSMS))
		require.NoError(t, err)

		assert.Equal(t, models.MethodSMS, output.Method)
		assert.Zero(t, f.email.calls)
		assert.Equal(t, 1, f.sms.calls)
	})

	t.Run("stored preference used when no method given", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectProfile("ada@medishift.ch", "+41791234567", models.MethodSMS)
		f.expectLogInsert()

		output, err := f.service.Execute(context.Background(), shiftInput(""))
		require.NoError(t, err)

		assert.Equal(t, models.MethodSMS, output.Method)
		assert.Equal(t, []string{"+41791234567"}, f.sms.lastTo)
	})

	t.Run("defaults to email", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectProfile("ada@medishift.ch", "+41791234567", "")
		f.expectLogInsert()

		output, err := f.service.Execute(context.Background(), shiftInput(""))
		require.NoError(t, err)

		assert.Equal(t, models.MethodEmail, output.Method)
		assert.Equal(t, 1, f.email.calls)
		assert.Zero(t, f.sms.calls)
	})
}

func TestExecuteRendersShiftTemplate(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProfile("ada@medishift.ch", "", models.MethodEmail)
	f.expectLogInsert()

	output, err := f.service.Execute(context.Background(), shiftInput(""))
	require.NoError(t, err)

	assert.True(t, output.Success)
	assert.Contains(t, f.email.lastMsg.Subject, "Kantonsspital Winterthur")
	assert.Contains(t, f.email.lastMsg.HTMLBody, "Hi Ada Keller,")
	assert.Contains(t, f.email.lastMsg.HTMLBody, "14 Sep 2026")
	assert.Contains(t, f.email.lastMsg.HTMLBody, "07:00")
}

func TestExecuteBothChannels(t *testing.T) {
	f := newServiceFixture(t)
	f.expectProfile("ada@medishift.ch", "+41791234567", "")

	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WithArgs(
			sqlmock.AnyArg(), "scheduler-1", "shift_assignment", models.MethodBoth,
			"shift_assigned", sqlmock.AnyArg(), 1, 1, 1,
			models.StatusSent, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.service.Execute(context.Background(), shiftInput(models.MethodBoth))
	require.NoError(t, err)

	require.NotNil(t, output.Results.Email)
	require.NotNil(t, output.Results.SMS)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}
