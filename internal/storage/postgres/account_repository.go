package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository создаёт PostgreSQL-реализацию AddressRepository.
func NewAddressRepository(store *Store) domain.AddressRepository {
	return &addressRepository{db: store.DB()}
}

const addressColumns = `id, user_id, type, title, full_name, phone, city, district, postal_code, address_text, created_at`

func (r *addressRepository) Get(id string) (domain.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var a domain.Address
	var addrType string
	err := r.db.QueryRowContext(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE id = $1
	`, id).Scan(
		&a.ID, &a.UserID, &addrType, &a.Title, &a.FullName, &a.Phone,
		&a.City, &a.District, &a.PostalCode, &a.Text, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, domain.ErrAddressNotFound
		}
		return domain.Address{}, fmt.Errorf("select address: %w", err)
	}
	a.Type = domain.AddressType(addrType)
	return a, nil
}

func (r *addressRepository) ListByUser(userID string) ([]domain.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		var a domain.Address
		var addrType string
		if err := rows.Scan(
			&a.ID, &a.UserID, &addrType, &a.Title, &a.FullName, &a.Phone,
			&a.City, &a.District, &a.PostalCode, &a.Text, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		a.Type = domain.AddressType(addrType)
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) Create(a domain.Address) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, type, title, full_name, phone, city, district, postal_code, address_text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, a.ID, a.UserID, string(a.Type), a.Title, a.FullName, a.Phone, a.City, a.District, a.PostalCode, a.Text, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// Delete удаляет адрес только у его владельца; чужой id неотличим от
// отсутствующего.
func (r *addressRepository) Delete(id, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM addresses WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete address rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

var _ domain.AddressRepository = (*addressRepository)(nil)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

const userColumns = `id, email, name, phone, role, company_name, tax_id, tax_office, created_at, updated_at`

func (r *userRepository) Get(id string) (domain.User, error) {
	return r.getWhere("id = $1", id)
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	return r.getWhere("LOWER(email) = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) getWhere(where string, arg any) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var u domain.User
	var role string
	err := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID, &u.Email, &u.Name, &u.Phone, &role,
		&u.Company.CompanyName, &u.Company.TaxID, &u.Company.TaxOffice,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *userRepository) Create(u domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, phone, role, company_name, tax_id, tax_office, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, u.ID, u.Email, u.Name, u.Phone, string(u.Role),
		u.Company.CompanyName, u.Company.TaxID, u.Company.TaxOffice,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(u domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2,
		    name = $3,
		    phone = $4,
		    role = $5,
		    company_name = $6,
		    tax_id = $7,
		    tax_office = $8,
		    updated_at = $9
		WHERE id = $1
	`, u.ID, u.Email, u.Name, u.Phone, string(u.Role),
		u.Company.CompanyName, u.Company.TaxID, u.Company.TaxOffice, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(limit int) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.Phone, &role,
			&u.Company.CompanyName, &u.Company.TaxID, &u.Company.TaxOffice,
			&u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.Role = domain.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
