package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

// Compile-time interface check: a missing method fails the build here, not
// at the first call site that passes *DB around as the interface.
var _ repository.UserRepository = (*DB)(nil)

// CreateAccount inserts the identity and profile rows in one transaction.
//
// The original flow for this operation was two sequential writes with a
// compensating delete when the second failed. A transaction subsumes that:
// either both rows land or neither does, and there is nothing to clean up.
func (db *DB) CreateAccount(ctx context.Context, cred *model.Credential, profile *model.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning account transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	cred.CreatedAt = now
	profile.CreatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO auth_users (id, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		cred.ID, cred.Email, cred.PasswordHash, cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", cred.Email)
		}
		return fmt.Errorf("sqlite: inserting credential for %s: %w", cred.Email, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, native_language, learning_language,
		                    proficiency_level, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Email, profile.Name, profile.NativeLanguage,
		profile.LearningLanguage, profile.ProficiencyLevel, profile.AvatarURL,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting profile for %s: %w", cred.Email, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing account for %s: %w", cred.Email, err)
	}

	return nil
}

// GetCredentialByEmail looks up the identity record for login. Email match
// is case-insensitive; emails are stored lowercased but we normalise here
// too so older rows keep working.
func (db *DB) GetCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at
		 FROM auth_users WHERE email = ?`,
		strings.ToLower(email),
	).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", email)
		}
		return nil, fmt.Errorf("sqlite: getting credential for %s: %w", email, err)
	}

	return &c, nil
}

// GetUserByID retrieves the learning profile.
// Returns apperror.ErrNotFound when no profile row exists.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, native_language, learning_language,
		        proficiency_level, avatar_url, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.NativeLanguage,
		&u.LearningLanguage,
		&u.ProficiencyLevel,
		&u.AvatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", id)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", id, err)
	}

	return &u, nil
}

// UpdateUser writes only the fields present in the partial update. The SET
// clause is assembled from a fixed column list; values are always bound as
// parameters, never interpolated.
func (db *DB) UpdateUser(ctx context.Context, id string, update model.UserUpdate) error {
	var (
		sets []string
		args []any
	)

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.NativeLanguage != nil {
		sets = append(sets, "native_language = ?")
		args = append(args, *update.NativeLanguage)
	}
	if update.LearningLanguage != nil {
		sets = append(sets, "learning_language = ?")
		args = append(args, *update.LearningLanguage)
	}
	if update.ProficiencyLevel != nil {
		sets = append(sets, "proficiency_level = ?")
		args = append(args, *update.ProficiencyLevel)
	}
	if update.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *update.AvatarURL)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking profile update %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("profile", id)
	}

	return nil
}
