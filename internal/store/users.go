package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// UserStore is the durable home of registered principals.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, password_hash, premium_currency_balance, hero_slots, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PremiumCurrencyBalance, &u.HeroSlots, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get user %s", id)
	}
	return u, nil
}

// GetByUsername fetches a user by login name, for password-based auth.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get user by username")
	}
	return u, nil
}

// Create inserts a new user. Duplicate usernames surface as Conflict via
// the unique index.
func (s *UserStore) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, premium_currency_balance, hero_slots, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Username, u.PasswordHash, u.PremiumCurrencyBalance, u.HeroSlots, u.CreatedAt)
	if isUniqueViolation(err) {
		return kind.Conflictf("username %q is already taken", u.Username)
	}
	if err != nil {
		return kind.Internalf(err, "create user")
	}
	return nil
}
