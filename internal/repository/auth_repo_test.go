package repository

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserCreate_ReturnsInsertID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (username, password_hash) VALUES (?, ?)`)).
		WithArgs("alice", "hash").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create("alice", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 42 {
		t.Fatalf("want id 42, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestUserCreate_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("constraint"))

	if _, err := repo.Create("alice", "hash"); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestGetByUsername_FoundAndMissing(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewUserRepository(db)

	query := regexp.QuoteMeta(`SELECT id, username, password_hash FROM users WHERE username = ?`)

	mock.ExpectQuery(query).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}).
			AddRow(7, "alice", "hash"))

	u, err := repo.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u == nil || u.ID != 7 || u.Username != "alice" || u.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Missing user is (nil, nil), not an error.
	mock.ExpectQuery(query).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}))

	u, err = repo.GetByUsername("bob")
	if err != nil {
		t.Fatalf("missing user should not error: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user, got %+v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
