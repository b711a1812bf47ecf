package bulkdispatch

import (
	"context"
	"errors"
	"fmt"
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
	sendFunc func(ctx context.Context, msg graph.Message) (*models.SendOutcome, error)
	batches  [][]string
}

func (m *mockEmailSender) Send(ctx context.Context, msg graph.Message) (*models.SendOutcome, error) {
	m.batches = append(m.batches, msg.To)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return &models.SendOutcome{Success: true, Method: models.MethodEmail, Recipients: msg.To}, nil
}

type mockSMSSender struct {
	sendFunc func(ctx context.Context, to []string, message string) (*models.SendOutcome, error)
	calls    int
	lastTo   []string
}

func (m *mockSMSSender) Send(ctx context.Context, to []string, message string) (*models.SendOutcome, error) {
	m.calls++
	m.lastTo = to
	if m.sendFunc != nil {
		return m.sendFunc(ctx, to, message)
	}
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

func adminRow(role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"uid", "role", "email"}).
		AddRow("admin-1", role, "ops@medishift.ch")
}

func profileRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"uid", "first_name", "last_name", "email", "phone",
		"worker_type", "canton", "verified", "pref_shift_assignment",
	})
}

func (f *serviceFixture) expectAdmin(role string) {
	f.sqlMock.ExpectQuery("SELECT uid, role, email FROM admins").
		WithArgs("admin-1").
		WillReturnRows(adminRow(role))
}

func adminInput(method string) *Input {
	return &Input{
		Method:        method,
		CustomSubject: "Campaign",
		CustomMessage: "Open shifts this weekend",
		Auth:          models.AuthContext{UID: "admin-1", Authenticated: true},
	}
}

func TestExecuteGating(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		f := newServiceFixture(t)
		input := adminInput(models.MethodEmail)
		input.Auth.Authenticated = false

		_, err := f.service.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthenticated, apperrors.CodeOf(err))
	})

	t.Run("no admin row", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sqlMock.ExpectQuery("SELECT uid, role, email FROM admins").
			WithArgs("admin-1").
			WillReturnRows(sqlmock.NewRows([]string{"uid", "role", "email"}))

		_, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodePermissionDenied, apperrors.CodeOf(err))
	})

	t.Run("wrong role", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectAdmin("support_agent")

		_, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodePermissionDenied, apperrors.CodeOf(err))
	})

	t.Run("ops manager allowed", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectAdmin(models.RoleOpsManager)
		f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles").
			WillReturnRows(profileRows().
				AddRow("w1", "Ada", "Keller", "ada@medishift.ch", "", "nurse", "ZH", true, "email"))
		f.sqlMock.ExpectExec("INSERT INTO notification_logs").
			WillReturnResult(sqlmock.NewResult(0, 1))

		output, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
		require.NoError(t, err)
		assert.True(t, output.Success)
	})
}

func TestExecuteNoRecipientsIsNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.expectAdmin(models.RoleSuperAdmin)
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles").
		WillReturnRows(profileRows())

	_, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.CodeOf(err))
	// no audit row is written before dispatch starts
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestExecuteEmailBatching(t *testing.T) {
	f := newServiceFixture(t)
	f.expectAdmin(models.RoleSuperAdmin)

	rows := profileRows()
	for i := 0; i < 120; i++ {
		rows.AddRow(
			fmt.Sprintf("w%d", i), "Worker", fmt.Sprintf("N%d", i),
			fmt.Sprintf("worker%d@medishift.ch", i), "", "nurse", "ZH", true, "email")
	}
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles").WillReturnRows(rows)
	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
	require.NoError(t, err)

	require.Len(t, f.email.batches, 3)
	assert.Len(t, f.email.batches[0], 50)
	assert.Len(t, f.email.batches[1], 50)
	assert.Len(t, f.email.batches[2], 20)

	assert.Equal(t, 120, output.RecipientCount)
	require.NotNil(t, output.Results.Email)
	assert.Len(t, output.Results.Email.Recipients, 120)
}

func TestExecuteBatchFailureAbortsWholeSend(t *testing.T) {
	f := newServiceFixture(t)
	f.expectAdmin(models.RoleSuperAdmin)

	rows := profileRows()
	for i := 0; i < 80; i++ {
		rows.AddRow(
			fmt.Sprintf("w%d", i), "Worker", fmt.Sprintf("N%d", i),
			fmt.Sprintf("worker%d@medishift.ch", i), "", "nurse", "ZH", true, "email")
	}
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles").WillReturnRows(rows)

	// only the outer failure row is written
	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WithArgs(
			sqlmock.AnyArg(), "admin-1", "bulk", models.MethodEmail,
			sqlmock.AnyArg(), sqlmock.AnyArg(), 80, 50, 0,
			models.StatusFailed, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	batch := 0
	f.email.sendFunc = func(ctx context.Context, msg graph.Message) (*models.SendOutcome, error) {
		batch++
		if batch == 2 {
			return nil, errors.New("graph sendMail returned 503")
		}
		return &models.SendOutcome{Success: true, Method: models.MethodEmail, Recipients: msg.To}, nil
	}

	_, err := f.service.Execute(context.Background(), adminInput(models.MethodEmail))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
	assert.Len(t, f.email.batches, 2, "second batch error stops the loop")
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}

func TestExecuteSMSSingleCall(t *testing.T) {
	f := newServiceFixture(t)
	f.expectAdmin(models.RoleSuperAdmin)

	rows := profileRows()
	for i := 0; i < 60; i++ {
		rows.AddRow(
			fmt.Sprintf("w%d", i), "Worker", fmt.Sprintf("N%d", i),
			"", fmt.Sprintf("07911122%02d", i), "nurse", "ZH", true, "email")
	}
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles").WillReturnRows(rows)
	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := f.service.Execute(context.Background(), adminInput(models.MethodSMS))
	require.NoError(t, err)

	assert.Equal(t, 1, f.sms.calls, "sms goes out as one batch")
	assert.Len(t, f.sms.lastTo, 60)
	assert.Equal(t, "+41791112200", f.sms.lastTo[0])
	require.NotNil(t, output.Results.SMS)
}

func TestExecuteLogsFiltersUsed(t *testing.T) {
	f := newServiceFixture(t)
	f.expectAdmin(models.RoleSuperAdmin)

	verified := true
	f.sqlMock.ExpectQuery("SELECT (.+) FROM professional_profiles WHERE worker_type").
		WithArgs("nurse", true).
		WillReturnRows(profileRows().
			AddRow("w1", "Ada", "Keller", "ada@medishift.ch", "", "nurse", "ZH", true, "email"))

	f.sqlMock.ExpectExec("INSERT INTO notification_logs").
		WithArgs(
			sqlmock.AnyArg(), "admin-1", "bulk", models.MethodEmail,
			sqlmock.AnyArg(), `{"workerType":"nurse","verified":true}`, 1, 1, 0,
			models.StatusSent, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	input := adminInput(models.MethodEmail)
	input.Filters = models.BulkFilters{WorkerType: "nurse", Verified: &verified}

	_, err := f.service.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}
