package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/isdelr/ponto-be/internal/database"
)

func TestIsUniqueViolationSQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	insert := "INSERT INTO employees(full_name, username, password_hash, role, created_at) VALUES(?, ?, ?, ?, ?)"
	now := time.Now().UTC()

	if _, err := db.ExecContext(ctx, insert, "Ana", "ana", "hash", "employee", now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "Ana Again", "ana", "hash", "employee", now)
	if !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// A CHECK constraint failure is a constraint error too, but not a unique one.
	_, err = db.ExecContext(ctx, insert, "Bob", "bob", "hash", "root", now)
	if err == nil {
		t.Fatalf("expected role check to fail")
	}
	if isUniqueViolation(err) {
		t.Fatalf("check constraint reported as unique violation: %v", err)
	}
	if isUniqueViolation(errors.New("UNIQUE constraint failed: employees.username")) {
		t.Fatalf("plain error text must not count as a unique violation")
	}
}

func TestDeleteEmployeeRowsAffectedError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	svc := NewEmployeeService(&database.DB{DB: sqlDB, Driver: "postgres"})

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM attendance_events").WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM employees").WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unavailable")))
	mock.ExpectRollback()

	if err := svc.DeleteEmployee(context.Background(), 7); err == nil {
		t.Fatalf("expected RowsAffected error to be returned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
