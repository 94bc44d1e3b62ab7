package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinio/clinic-api/internal/platform/auth"
)

type Service struct {
	users   UserRepository
	doctors DoctorRepository
	tokens  *auth.TokenManager
}

func NewService(users UserRepository, doctors DoctorRepository, tokens *auth.TokenManager) *Service {
	return &Service{users: users, doctors: doctors, tokens: tokens}
}

// -- Auth --

// Authenticate checks the credentials and returns a signed token plus the
// user. Credential failures are indistinguishable between unknown email and
// wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return token, u, nil
}

// -- User --

func (s *Service) CreateUser(ctx context.Context, u *User, password string) error {
	if u.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("%w: first_name and last_name are required", ErrInvalidInput)
	}
	if u.Role == "" {
		u.Role = RolePatient
	}
	if !ValidRole(u.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidInput, u.Role)
	}
	u.Email = normalizeEmail(u.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, u *User, password string) error {
	existing, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if u.Role != "" && !ValidRole(u.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidInput, u.Role)
	}
	if u.Role == "" {
		u.Role = existing.Role
	}
	if u.Email == "" {
		u.Email = existing.Email
	} else {
		u.Email = normalizeEmail(u.Email)
	}
	if u.FirstName == "" {
		u.FirstName = existing.FirstName
	}
	if u.LastName == "" {
		u.LastName = existing.LastName
	}
	u.PasswordHash = existing.PasswordHash
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	return s.users.Update(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// ListPatients returns users with the patient role.
func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.ListByRole(ctx, RolePatient, limit, offset)
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if d.Specialty == "" {
		return fmt.Errorf("%w: specialty is required", ErrInvalidInput)
	}
	u, err := s.users.GetByID(ctx, d.UserID)
	if err != nil {
		return err
	}
	if u.Role != RoleDoctor {
		return fmt.Errorf("%w: user %s does not have the doctor role", ErrInvalidInput, d.UserID)
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	existing, err := s.doctors.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if d.UserID == uuid.Nil {
		d.UserID = existing.UserID
	}
	if d.Specialty == "" {
		d.Specialty = existing.Specialty
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

// -- Directory --

// DoctorExists and PatientExists let the scheduling domain resolve
// references without depending on identity's models.

func (s *Service) DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error) {
	return s.doctors.Exists(ctx, doctorID)
}

func (s *Service) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.users.ExistsWithRole(ctx, patientID, RolePatient)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
