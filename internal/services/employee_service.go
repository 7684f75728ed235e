package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/ponto-be/internal/config"
	"github.com/isdelr/ponto-be/internal/database"
	"github.com/isdelr/ponto-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// EmployeeServiceProvider defines the interface for employee services.
type EmployeeServiceProvider interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployeeByID(ctx context.Context, id int64) (models.Employee, error)
	CreateEmployee(ctx context.Context, in EmployeeInput) (models.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, patch EmployeePatch) (models.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
	AuthenticateEmployee(ctx context.Context, username, password string) (models.Employee, error)
}

// EmployeeInput carries the fields needed to create an account.
type EmployeeInput struct {
	FullName string      `json:"full_name"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// EmployeePatch carries the fields an administrator may change. Nil means unchanged.
type EmployeePatch struct {
	FullName *string      `json:"full_name"`
	Username *string      `json:"username"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
}

// EmployeeService provides business logic for employee management.
type EmployeeService struct {
	db *database.DB
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(db *database.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

const employeeColumns = "id, full_name, username, password_hash, role, created_at"

// ListEmployees returns every account ordered by name.
func (s *EmployeeService) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY full_name ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		emp.PasswordHash = ""
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// GetEmployeeByID retrieves a single employee by their ID.
func (s *EmployeeService) GetEmployeeByID(ctx context.Context, id int64) (models.Employee, error) {
	emp, err := s.getEmployee(ctx, "id", id)
	if err != nil {
		return models.Employee{}, err
	}
	emp.PasswordHash = ""
	return emp, nil
}

func (s *EmployeeService) getEmployee(ctx context.Context, column string, value any) (models.Employee, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+employeeColumns+" FROM employees WHERE "+column+" = ?"), value)
	emp, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Employee{}, fmt.Errorf("employee with %s %v: %w", column, value, ErrNotFound)
		}
		return models.Employee{}, err
	}
	return emp, nil
}

// CreateEmployee creates a new employee, hashing their password.
func (s *EmployeeService) CreateEmployee(ctx context.Context, in EmployeeInput) (models.Employee, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	if in.FullName == "" {
		return models.Employee{}, invalid("full_name", in.FullName, ErrInvalidInput)
	}
	if in.Username == "" {
		return models.Employee{}, invalid("username", in.Username, ErrInvalidInput)
	}
	if in.Password == "" {
		return models.Employee{}, invalid("password", "", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = models.RoleEmployee
	}
	if !in.Role.Valid() {
		return models.Employee{}, invalid("role", string(in.Role), ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Employee{}, fmt.Errorf("failed to hash password: %w", err)
	}

	emp := models.Employee{
		FullName:  in.FullName,
		Username:  in.Username,
		Role:      in.Role,
		CreatedAt: time.Now().UTC(),
	}
	err = s.db.QueryRowContext(ctx,
		s.db.Rebind("INSERT INTO employees(full_name, username, password_hash, role, created_at) VALUES(?, ?, ?, ?, ?) RETURNING id"),
		emp.FullName, emp.Username, string(hashedPassword), string(emp.Role), emp.CreatedAt,
	).Scan(&emp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Employee{}, fmt.Errorf("%s: %w", emp.Username, ErrUsernameTaken)
		}
		return models.Employee{}, err
	}
	return emp, nil
}

// UpdateEmployee applies the non-nil fields of patch.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id int64, patch EmployeePatch) (models.Employee, error) {
	existing, err := s.getEmployee(ctx, "id", id)
	if err != nil {
		return models.Employee{}, err
	}

	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			return models.Employee{}, invalid("full_name", *patch.FullName, ErrInvalidInput)
		}
		existing.FullName = name
	}
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username == "" {
			return models.Employee{}, invalid("username", *patch.Username, ErrInvalidInput)
		}
		existing.Username = username
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return models.Employee{}, invalid("role", string(*patch.Role), ErrInvalidInput)
		}
		existing.Role = *patch.Role
	}
	if patch.Password != nil && *patch.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Employee{}, fmt.Errorf("failed to hash new password: %w", err)
		}
		existing.PasswordHash = string(hashed)
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE employees SET full_name = ?, username = ?, role = ?, password_hash = ? WHERE id = ?"),
		existing.FullName, existing.Username, string(existing.Role), existing.PasswordHash, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Employee{}, fmt.Errorf("%s: %w", existing.Username, ErrUsernameTaken)
		}
		return models.Employee{}, err
	}
	existing.PasswordHash = ""
	return existing, nil
}

// DeleteEmployee removes an employee together with their attendance history.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The FK cascades too; deleting explicitly keeps the guarantee on connections without foreign_keys.
	if _, err := tx.ExecContext(ctx, s.db.Rebind("DELETE FROM attendance_events WHERE employee_id = ?"), id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, s.db.Rebind("DELETE FROM employees WHERE id = ?"), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("employee with id %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// AuthenticateEmployee verifies an employee's credentials.
func (s *EmployeeService) AuthenticateEmployee(ctx context.Context, username, password string) (models.Employee, error) {
	emp, err := s.getEmployee(ctx, "username", strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Employee{}, ErrInvalidCredentials
		}
		return models.Employee{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return models.Employee{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	emp.PasswordHash = ""
	return emp, nil
}

// EnsureAdmins creates the configured administrator accounts, skipping usernames that already exist.
func (s *EmployeeService) EnsureAdmins(ctx context.Context, seeds []config.AdminSeed) (int, error) {
	created := 0
	for _, seed := range seeds {
		if _, err := s.getEmployee(ctx, "username", seed.Username); err == nil {
			log.Info().Str("username", seed.Username).Msg("Admin already exists, skipping")
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return created, err
		}
		name := seed.FullName
		if name == "" {
			name = seed.Username
		}
		if _, err := s.CreateEmployee(ctx, EmployeeInput{
			FullName: name,
			Username: seed.Username,
			Password: seed.Password,
			Role:     models.RoleAdmin,
		}); err != nil {
			return created, fmt.Errorf("seed admin %s: %w", seed.Username, err)
		}
		log.Info().Str("username", seed.Username).Msg("Admin created")
		created++
	}
	return created, nil
}

func scanEmployee(scanner interface{ Scan(...any) error }) (models.Employee, error) {
	var emp models.Employee
	var role string
	if err := scanner.Scan(&emp.ID, &emp.FullName, &emp.Username, &emp.PasswordHash, &role, &emp.CreatedAt); err != nil {
		return models.Employee{}, err
	}
	emp.Role = models.Role(role)
	return emp, nil
}
