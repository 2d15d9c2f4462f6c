package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/kovalev70/sandbox-connector/internal/core/domain"
	"github.com/kovalev70/sandbox-connector/internal/repository"
)

func TestUserRepository_Exists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(.*FROM "User" WHERE "login" = \$1`).
		WithArgs("jdoe").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(.*FROM "User" WHERE "login" = \$1`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.Exists(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("Exists returned error: %v", err)
	}
	if !exists {
		t.Fatalf("expected jdoe to exist")
	}

	exists, err = repo.Exists(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Exists returned error for absent user: %v", err)
	}
	if exists {
		t.Fatalf("expected ghost to be absent")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_CreateCommitsBothRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	user := domain.User{Login: "jdoe", FirstName: "Jane", IsLead: true}
	credential := domain.Credential{UserID: "jdoe", Password: "h1"}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "User"`).
		WithArgs("jdoe", "", "Jane", "", "", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO "Passwords" \("userId","password"\)`).
		WithArgs("jdoe", "h1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Create(context.Background(), user, credential); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_CreateRollsBackOnCredentialFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	insertErr := errors.New("duplicate key")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "User"`).
		WithArgs("jdoe", "", "", "", "", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO "Passwords"`).
		WithArgs("jdoe", "h1").
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err = repo.Create(context.Background(), domain.User{Login: "jdoe"}, domain.Credential{UserID: "jdoe", Password: "h1"})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	rows := pgxmock.NewRows([]string{
		"login", "lastName", "firstName", "middleName", "telephoneNumber", "isLead",
	}).AddRow("jdoe", "Doe", "Jane", nil, "+100", false)

	mock.ExpectQuery(`SELECT .*FROM "User" WHERE "login" = \$1`).WithArgs("jdoe").WillReturnRows(rows)

	user, err := repo.Get(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if user.Login != "jdoe" || user.LastName != "Doe" || user.FirstName != "Jane" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.MiddleName != "" {
		t.Fatalf("expected NULL middle name to read as empty, got %q", user.MiddleName)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM "User"`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .*FROM "Passwords"`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Get(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for user, got %v", err)
	}
	if _, err := repo.GetCredential(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for credential, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetCredential(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "userId", "password"}).AddRow(int64(3), "jdoe", "h1")
	mock.ExpectQuery(`SELECT "id", "userId", "password" FROM "Passwords" WHERE "userId" = \$1`).
		WithArgs("jdoe").
		WillReturnRows(rows)

	credential, err := repo.GetCredential(context.Background(), "jdoe")
	if err != nil {
		t.Fatalf("GetCredential returned error: %v", err)
	}
	if credential.ID != 3 || credential.UserID != "jdoe" || credential.Password != "h1" {
		t.Fatalf("unexpected credential: %+v", credential)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateSingleCommit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	user := domain.User{Login: "jdoe", LastName: "Doe", FirstName: "Jane", MiddleName: "Q", TelephoneNumber: "+100"}
	credential := domain.Credential{ID: 3, UserID: "jdoe", Password: "h2"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "User" SET`).
		WithArgs("Doe", "Jane", "Q", "+100", false, "jdoe").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE "Passwords" SET "password" = \$1 WHERE "userId" = \$2`).
		WithArgs("h2", "jdoe").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := repo.Update(context.Background(), user, credential); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateMissingCredentialRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "User" SET`).
		WithArgs("", "", "", "", false, "jdoe").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE "Passwords" SET "password" = \$1 WHERE "userId" = \$2`).
		WithArgs("h2", "jdoe").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), domain.User{Login: "jdoe"}, domain.Credential{UserID: "jdoe", Password: "h2"})
	if !errors.Is(err, repository.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("credential miss must be distinguishable from a missing user: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdateMissingRowRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "User" SET`).
		WithArgs("", "", "", "", false, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = repo.Update(context.Background(), domain.User{Login: "ghost"}, domain.Credential{UserID: "ghost"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
