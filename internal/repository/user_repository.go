// internal/repository/user_repository.go
package repository

import (
	"database/sql"

	"github.com/unclebandit/dripflow-backend/internal/model"
)

type UserRepositoryInterface interface {
	Create(u *model.User) error
	GetByEmail(email string) (*model.User, error)
	GetByID(id string) (*model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

func (r *UserRepository) Create(u *model.User) error {
	query := `
        INSERT INTO users (id, name, email, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.DB.Exec(query, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE email=$1`
	var u model.User
	err := r.DB.QueryRow(query, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(id string) (*model.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.DB.QueryRow(query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
