// internal/store/profiles.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medishift-notifications/internal/models"
)

// maxBulkRecipients caps one bulk audience query. Larger audiences are
// silently truncated.
const maxBulkRecipients = 500

// Profiles reads admins and professional profiles from postgres.
type Profiles struct {
	db            *sql.DB
	countryPrefix string
}

// NewProfiles builds the profile store. countryPrefix is prepended to raw
// local phone numbers, e.g. "+41".
func NewProfiles(db *sql.DB, countryPrefix string) *Profiles {
	if countryPrefix == "" {
		countryPrefix = "+41"
	}
	return &Profiles{db: db, countryPrefix: countryPrefix}
}

// GetAdmin returns the active admin row for the uid, or nil when none
// exists.
func (s *Profiles) GetAdmin(ctx context.Context, uid string) (*models.Admin, error) {
	const query = `SELECT uid, role, email FROM admins WHERE uid = $1 AND active = TRUE`

	var admin models.Admin
	var email sql.NullString
	err := s.db.QueryRowContext(ctx, query, uid).Scan(&admin.UID, &admin.Role, &email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin %s: %w", uid, err)
	}
	admin.Email = email.String
	return &admin, nil
}

const profileColumns = `uid, first_name, last_name, email, phone, worker_type, canton, verified, pref_shift_assignment`

func scanProfile(scan func(dest ...interface{}) error) (*models.ProfessionalProfile, error) {
	var p models.ProfessionalProfile
	var email, phone, workerType, canton, shiftPref sql.NullString
	err := scan(
		&p.UID, &p.FirstName, &p.LastName,
		&email, &phone, &workerType, &canton,
		&p.Verified, &shiftPref,
	)
	if err != nil {
		return nil, err
	}
	p.Email = email.String
	p.Phone = phone.String
	p.WorkerType = workerType.String
	p.Canton = canton.String
	p.Preferences.ShiftAssignment = shiftPref.String
	return &p, nil
}

// GetProfile returns the professional profile for the uid, or nil when no
// row exists.
func (s *Profiles) GetProfile(ctx context.Context, uid string) (*models.ProfessionalProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM professional_profiles WHERE uid = $1`, profileColumns)

	row := s.db.QueryRowContext(ctx, query, uid)
	profile, err := scanProfile(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", uid, err)
	}
	return profile, nil
}

// QueryRecipients resolves the bulk audience. Equality filters apply per
// non-zero field; results cap at 500 rows. Phone numbers get the country
// prefix applied and rows with neither contact method are dropped.
func (s *Profiles) QueryRecipients(ctx context.Context, filters models.BulkFilters) ([]models.Recipient, error) {
	var conditions []string
	var args []interface{}

	if filters.WorkerType != "" {
		args = append(args, filters.WorkerType)
		conditions = append(conditions, fmt.Sprintf("worker_type = $%d", len(args)))
	}
	if filters.Verified != nil {
		args = append(args, *filters.Verified)
		conditions = append(conditions, fmt.Sprintf("verified = $%d", len(args)))
	}
	if filters.Canton != "" {
		args = append(args, filters.Canton)
		conditions = append(conditions, fmt.Sprintf("canton = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM professional_profiles`, profileColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" LIMIT %d", maxBulkRecipients)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		profile, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}

		r := models.Recipient{
			Email: profile.Email,
			Phone: s.withCountryPrefix(profile.Phone),
			Name:  profile.FullName(),
		}
		if r.Email == "" && r.Phone == "" {
			continue
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipients: %w", err)
	}
	return recipients, nil
}

// withCountryPrefix turns raw local numbers into international form.
// "079..." becomes "+4179...", bare "79..." gets the prefix, numbers
// already starting with + pass through.
func (s *Profiles) withCountryPrefix(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if strings.HasPrefix(phone, "0") {
		return s.countryPrefix + phone[1:]
	}
	return s.countryPrefix + phone
}
