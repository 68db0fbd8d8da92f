// Package model defines the data structures used throughout the application.
package model

import "time"

// Proficiency levels accepted on a learning profile. Stored as plain strings
// so the column stays readable in the database.
const (
	LevelBeginner     = "Beginner"
	LevelElementary   = "Elementary"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelProficient   = "Proficient"
)

// User is the application profile row: the learning profile attached to an
// identity.
//
// WHY TWO RECORDS (Credential vs User)?
// Identity (can you log in?) and profile (who are you as a learner?) have
// different lifecycles. Registration creates both atomically; profile edits
// never touch credentials. Keeping them separate also means an identity row
// without a profile row is detectable as a data-integrity fault instead of
// being conflated with "wrong password".
type User struct {
	ID               string    `json:"id"               db:"id"`
	Email            string    `json:"email"            db:"email"`
	Name             string    `json:"name"             db:"name"`
	NativeLanguage   string    `json:"nativeLanguage"   db:"native_language"`
	LearningLanguage string    `json:"learningLanguage" db:"learning_language"`
	ProficiencyLevel string    `json:"proficiencyLevel" db:"proficiency_level"`
	AvatarURL        string    `json:"avatarUrl,omitempty" db:"avatar_url"` // may be empty
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
}

// Credential is the identity record used for login. The password hash is a
// self-contained bcrypt string (salt and cost embedded).
type Credential struct {
	ID           string    `json:"id"    db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-"     db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// UserUpdate carries a partial profile update. Nil fields are left unchanged;
// only supplied fields are written.
type UserUpdate struct {
	Name             *string `json:"name,omitempty"`
	NativeLanguage   *string `json:"nativeLanguage,omitempty"`
	LearningLanguage *string `json:"learningLanguage,omitempty"`
	ProficiencyLevel *string `json:"proficiencyLevel,omitempty"`
	AvatarURL        *string `json:"avatarUrl,omitempty"`
}

// Empty reports whether the update contains no fields at all.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.NativeLanguage == nil && u.LearningLanguage == nil &&
		u.ProficiencyLevel == nil && u.AvatarURL == nil
}

// ValidProficiencyLevel reports whether level is one of the accepted values.
func ValidProficiencyLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelElementary, LevelIntermediate, LevelAdvanced, LevelProficient:
		return true
	}
	return false
}
