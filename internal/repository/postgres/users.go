package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/core/port"
	"github.com/kovalev70/sandbox-connector/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	db      pgDB
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(db pgDB) *UserRepository {
	return &UserRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		db:      tx,
		builder: r.builder,
	}
}

// Exists reports whether a user row with the login is present.
func (r *UserRepository) Exists(ctx context.Context, login string) (bool, error) {
	stmt, args, err := r.builder.Select("1").
		Prefix("SELECT EXISTS (").
		From(tableUsers).
		Where(squirrel.Eq{colLogin: login}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build user exists sql: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("scan user exists: %w", err)
	}

	return exists, nil
}

// Create inserts the user row and its password row in one transaction.
func (r *UserRepository) Create(ctx context.Context, user domain.User, credential domain.Credential) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)
		if err := txRepo.insertUser(ctx, user); err != nil {
			return err
		}
		return txRepo.insertCredential(ctx, credential)
	})
}

func (r *UserRepository) insertUser(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(tableUsers).
		Columns(
			colLogin,
			colLastName,
			colFirstName,
			colMiddleName,
			colTelephoneNumber,
			colIsLead,
		).
		Values(
			user.Login,
			user.LastName,
			user.FirstName,
			user.MiddleName,
			user.TelephoneNumber,
			user.IsLead,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *UserRepository) insertCredential(ctx context.Context, credential domain.Credential) error {
	stmt, args, err := r.builder.Insert(tablePasswords).
		Columns(colUserID, colPassword).
		Values(credential.UserID, credential.Password).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert password sql: %w", err)
	}

	if _, err := r.db.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert password: %w", err)
	}

	return nil
}

// Get retrieves a user by login.
func (r *UserRepository) Get(ctx context.Context, login string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(
			colLogin,
			colLastName,
			colFirstName,
			colMiddleName,
			colTelephoneNumber,
			colIsLead,
		).
		From(tableUsers).
		Where(squirrel.Eq{colLogin: login}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	var (
		user            domain.User
		lastName        sql.NullString
		firstName       sql.NullString
		middleName      sql.NullString
		telephoneNumber sql.NullString
		isLead          sql.NullBool
	)

	if err := r.db.QueryRow(ctx, stmt, args...).Scan(
		&user.Login,
		&lastName,
		&firstName,
		&middleName,
		&telephoneNumber,
		&isLead,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.LastName = lastName.String
	user.FirstName = firstName.String
	user.MiddleName = middleName.String
	user.TelephoneNumber = telephoneNumber.String
	user.IsLead = isLead.Bool

	return &user, nil
}

// GetCredential retrieves the password row paired with the login.
func (r *UserRepository) GetCredential(ctx context.Context, login string) (*domain.Credential, error) {
	stmt, args, err := r.builder.Select(colID, colUserID, colPassword).
		From(tablePasswords).
		Where(squirrel.Eq{colUserID: login}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select password sql: %w", err)
	}

	var (
		credential domain.Credential
		password   sql.NullString
	)

	if err := r.db.QueryRow(ctx, stmt, args...).Scan(&credential.ID, &credential.UserID, &password); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan password: %w", err)
	}
	credential.Password = password.String

	return &credential, nil
}

// Update rewrites the user's attribute columns and password in one transaction.
func (r *UserRepository) Update(ctx context.Context, user domain.User, credential domain.Credential) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		txRepo := r.WithTx(tx)
		if err := txRepo.updateUser(ctx, user); err != nil {
			return err
		}
		return txRepo.updateCredential(ctx, credential)
	})
}

func (r *UserRepository) updateUser(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update(tableUsers).
		Set(colLastName, user.LastName).
		Set(colFirstName, user.FirstName).
		Set(colMiddleName, user.MiddleName).
		Set(colTelephoneNumber, user.TelephoneNumber).
		Set(colIsLead, user.IsLead).
		Where(squirrel.Eq{colLogin: user.Login}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) updateCredential(ctx context.Context, credential domain.Credential) error {
	stmt, args, err := r.builder.Update(tablePasswords).
		Set(colPassword, credential.Password).
		Where(squirrel.Eq{colUserID: credential.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.db.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
