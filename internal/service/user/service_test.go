package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"candyshop/internal/domain"
)

type stubRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	addresses map[string][]domain.Address
	verified  map[string]bool
	createErr error
	nextID    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byID:      map[string]*domain.User{},
		byEmail:   map[string]*domain.User{},
		addresses: map[string][]domain.Address{},
		verified:  map[string]bool{},
	}
}

func (s *stubRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	s.nextID++
	u.ID = "user-" + string(rune('0'+s.nextID))
	s.byID[u.ID] = &u
	s.byEmail[u.Email] = &u
	return &u, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *stubRepo) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) SetVerified(_ context.Context, id string) error {
	u, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Verified = true
	s.verified[id] = true
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *stubRepo) AddAddress(_ context.Context, a domain.Address) (*domain.Address, error) {
	a.ID = "addr-1"
	s.addresses[a.UserID] = append(s.addresses[a.UserID], a)
	return &a, nil
}

func (s *stubRepo) ListAddresses(_ context.Context, userID string) ([]domain.Address, error) {
	return s.addresses[userID], nil
}

func (s *stubRepo) DeleteAddress(_ context.Context, userID, addressID string) error {
	return nil
}

func newTestService(repo *stubRepo) *Service {
	return New(repo, "test-secret", time.Hour, time.Minute, zerolog.Nop())
}

func TestSignupAndLogin(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	created, err := svc.Signup(context.Background(), SignupInput{
		UserName: "alex",
		Email:    "Alex@Example.com",
		Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created.Email != "alex@example.com" {
		t.Fatalf("expected lowercased email, got %s", created.Email)
	}
	if created.Role != domain.RoleCustomer {
		t.Fatalf("expected customer role, got %s", created.Role)
	}

	u, token, err := svc.Login(context.Background(), "alex@example.com", "supersecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}

	userID, role, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if userID != u.ID || role != domain.RoleCustomer {
		t.Fatalf("unexpected claims: %s %s", userID, role)
	}
}

func TestSignup_RejectsWeakInput(t *testing.T) {
	svc := newTestService(newStubRepo())

	cases := []SignupInput{
		{Email: "a@b.c", Password: "longenough"}, // no name
		{UserName: "x", Email: "not-an-email", Password: "longenough"},
		{UserName: "x", Email: "a@b.c", Password: "short"},
	}
	for _, in := range cases {
		if _, err := svc.Signup(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
}

func TestLogin_SameErrorForUnknownAndWrongPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	if _, err := svc.Signup(context.Background(), SignupInput{UserName: "alex", Email: "a@b.c", Password: "supersecret"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, _, errUnknown := svc.Login(context.Background(), "nobody@b.c", "supersecret")
	_, _, errWrong := svc.Login(context.Background(), "a@b.c", "wrongpassword")
	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for both, got %v / %v", errUnknown, errWrong)
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := newTestService(newStubRepo())
	if _, _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestOTPFlow(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	u, err := svc.Signup(context.Background(), SignupInput{UserName: "alex", Email: "a@b.c", Password: "supersecret"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	code, err := svc.RequestOTP(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if err := svc.VerifyOTP(context.Background(), u.ID, "000000x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for wrong code, got %v", err)
	}
	if err := svc.VerifyOTP(context.Background(), u.ID, code); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if !repo.verified[u.ID] {
		t.Fatalf("expected user marked verified")
	}

	// Codes are single-use.
	if err := svc.VerifyOTP(context.Background(), u.ID, code); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected second use to fail, got %v", err)
	}
}

func TestAddAddress_Validates(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.AddAddress(context.Background(), domain.Address{UserID: "user-1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	created, err := svc.AddAddress(context.Background(), domain.Address{
		UserID:       "user-1",
		CustomerName: "Alex",
		PhoneNumber:  "0900000000",
		Street:       "1 Candy Lane",
		ProvinceID:   "1",
		DistrictID:   "2",
		WardID:       "3",
	})
	if err != nil {
		t.Fatalf("add address: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned address id")
	}
}
