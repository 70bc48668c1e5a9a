package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultRole = "MEMBER"

type User struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
	// Password holds the bcrypt hash and never leaves the server.
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) normalize() error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	u.Position = strings.TrimSpace(u.Position)
	if u.Role == "" {
		u.Role = DefaultRole
	}
	switch {
	case u.Name == "":
		return invalid("name is required")
	case u.Email == "":
		return invalid("email is required")
	case u.Position == "":
		return invalid("position is required")
	}
	return nil
}

const userColumns = `id, name, email, position, password, role, created_at, updated_at`

func scanUser(row scanner) (*User, error) {
	var u User
	var created, updated string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Position, &u.Password, &u.Role, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = parseStamp(created)
	u.UpdatedAt = parseStamp(updated)
	return &u, nil
}

// CreateUser inserts u with a fresh id. Password must already be hashed.
func (s *Store) CreateUser(u User) (*User, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	if err := u.normalize(); err != nil {
		return nil, err
	}
	u.ID = newID()
	now := s.stamp()
	_, err := s.db.Exec(
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Position, u.Password, u.Role, now, now,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt = parseStamp(now)
	u.UpdatedAt = u.CreatedAt
	return &u, nil
}

// ListUsers returns every user, newest first.
func (s *Store) ListUsers() ([]User, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows user: %w", err)
	}
	return out, nil
}

func (s *Store) GetUser(id string) (*User, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	if s == nil || s.db == nil {
		return nil, errNotInitialized
	}
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateUser loads the user, lets apply modify it and writes it back. The id,
// password and creation time cannot be changed through apply.
func (s *Store) UpdateUser(id string, apply func(*User) error) (*User, error) {
	cur, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	next := *cur
	if err := apply(&next); err != nil {
		return nil, invalid("%v", err)
	}
	next.ID, next.Password, next.CreatedAt = cur.ID, cur.Password, cur.CreatedAt
	if err := next.normalize(); err != nil {
		return nil, err
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, position = ?, role = ?, updated_at = ? WHERE id = ?`,
		next.Name, next.Email, next.Position, next.Role, now, id,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := checkAffected(res, "update user"); err != nil {
		return nil, err
	}
	next.UpdatedAt = parseStamp(now)
	return &next, nil
}

func (s *Store) DeleteUser(id string) error {
	if s == nil || s.db == nil {
		return errNotInitialized
	}
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkAffected(res, "delete user")
}
