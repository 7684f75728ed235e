package services

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/ponto-be/internal/database"
	"github.com/isdelr/ponto-be/internal/models"
)

var testLoc = time.FixedZone("BRT", -3*3600)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateEmployee(t *testing.T, svc *EmployeeService, name, username string, role models.Role) models.Employee {
	t.Helper()
	emp, err := svc.CreateEmployee(context.Background(), EmployeeInput{
		FullName: name,
		Username: username,
		Password: "pass-" + username,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create employee %s: %v", username, err)
	}
	return emp
}

func countRows(t *testing.T, db *database.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(db.Rebind(query), args...).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
