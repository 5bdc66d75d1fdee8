package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/sentinelhq/sentinel/internal/database"
	"github.com/sentinelhq/sentinel/internal/models"
)

// UserRepository provides durable access to User records keyed by email.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

const userColumns = `email, hashed_password, name, verified,
	verification_token, verification_token_expiry,
	reset_token, reset_token_expiry,
	role, locked, login_attempts, allowed_ips, created_at, updated_at`

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var verificationToken, resetToken *string
	var verificationExpiry, resetExpiry *time.Time

	err := scanner.Scan(
		&user.Email, &user.HashedPassword, &user.Name, &user.Verified,
		&verificationToken, &verificationExpiry,
		&resetToken, &resetExpiry,
		&user.Role, &user.Locked, &user.LoginAttempts,
		pq.Array(&user.AllowedIPs),
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if verificationToken != nil {
		user.VerificationToken = *verificationToken
	}
	user.VerificationTokenExpiry = verificationExpiry
	if resetToken != nil {
		user.ResetToken = *resetToken
	}
	user.ResetTokenExpiry = resetExpiry

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// GetByResetToken finds the user holding a given reset token, if any.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE reset_token = $1`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, token))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := fmt.Sprintf(`
		INSERT INTO users (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING %s
	`, userColumns, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Email, user.HashedPassword, user.Name, user.Verified,
		nullableString(user.VerificationToken), user.VerificationTokenExpiry,
		nullableString(user.ResetToken), user.ResetTokenExpiry,
		user.Role, user.Locked, user.LoginAttempts,
		pq.Array(user.AllowedIPs),
		user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) Update(ctx context.Context, email string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := fmt.Sprintf(`
		UPDATE users SET
			hashed_password = $1, name = $2, verified = $3,
			verification_token = $4, verification_token_expiry = $5,
			reset_token = $6, reset_token_expiry = $7,
			role = $8, locked = $9, login_attempts = $10,
			allowed_ips = $11, updated_at = $12
		WHERE email = $13
		RETURNING %s
	`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.HashedPassword, user.Name, user.Verified,
		nullableString(user.VerificationToken), user.VerificationTokenExpiry,
		nullableString(user.ResetToken), user.ResetTokenExpiry,
		user.Role, user.Locked, user.LoginAttempts,
		pq.Array(user.AllowedIPs), user.UpdatedAt,
		email,
	))
}

func (r *UserRepository) Delete(ctx context.Context, email string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// IncrementLoginAttempts bumps the failed-attempt counter in a single
// statement and returns the new count, so concurrent failures for the
// same account cannot under-count.
func (r *UserRepository) IncrementLoginAttempts(ctx context.Context, email string) (int, error) {
	query := `
		UPDATE users SET login_attempts = login_attempts + 1, updated_at = $1
		WHERE email = $2
		RETURNING login_attempts
	`

	var attempts int
	err := r.pool.QueryRow(ctx, query, time.Now(), email).Scan(&attempts)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, models.ErrNotFound
		}
		return 0, database.MapPostgresError(err)
	}

	return attempts, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
