package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"candyshop/internal/domain"
	userrepo "candyshop/internal/repository/user"
)

// ErrInvalidToken indicates the provided token could not be validated.
var ErrInvalidToken = errors.New("invalid token")

const passwordMin = 8

// Service handles signup/login, OTP verification and address bookkeeping.
type Service struct {
	repo      userrepo.Repository
	otp       *otpStore
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func New(repo userrepo.Repository, jwtSecret string, tokenTTL, otpTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		otp:       newOTPStore(otpTTL),
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

type SignupInput struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.UserName = strings.TrimSpace(in.UserName)
	switch {
	case in.UserName == "":
		return nil, fmt.Errorf("%w: userName required", domain.ErrValidation)
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, fmt.Errorf("%w: valid email required", domain.ErrValidation)
	case len(in.Password) < passwordMin:
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, passwordMin)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, domain.User{
		UserName:     in.UserName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("user signed up")
	return created, nil
}

// Login checks the password and returns the user with a signed JWT. The
// same error comes back for unknown emails and wrong passwords.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) issueToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a bearer token and returns the subject user id and
// role claim.
func (s *Service) ValidateToken(tokenString string) (userID, role string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", "", ErrInvalidToken
	}
	r, _ := claims["role"].(string)
	return sub, r, nil
}

// RequestOTP issues a short-lived verification code for the user. Delivery
// (mail, SMS) is out of scope; the code is returned to the caller and
// logged at debug level for development.
func (s *Service) RequestOTP(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	code, err := s.otp.issue(u.ID)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("user_id", u.ID).Str("code", code).Msg("otp issued")
	return code, nil
}

// VerifyOTP consumes the code and marks the user verified. Codes are
// single-use: a correct code is deleted whether or not the update succeeds.
func (s *Service) VerifyOTP(ctx context.Context, userID, code string) error {
	if !s.otp.consume(userID, code) {
		return fmt.Errorf("%w: wrong or expired code", domain.ErrValidation)
	}
	return s.repo.SetVerified(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	addresses, err := s.repo.ListAddresses(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Addresses = addresses
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddAddress(ctx context.Context, a domain.Address) (*domain.Address, error) {
	switch {
	case a.UserID == "":
		return nil, fmt.Errorf("%w: userId required", domain.ErrValidation)
	case strings.TrimSpace(a.CustomerName) == "":
		return nil, fmt.Errorf("%w: customerName required", domain.ErrValidation)
	case strings.TrimSpace(a.PhoneNumber) == "":
		return nil, fmt.Errorf("%w: phoneNumber required", domain.ErrValidation)
	case strings.TrimSpace(a.Street) == "":
		return nil, fmt.Errorf("%w: address required", domain.ErrValidation)
	case a.ProvinceID == "" || a.DistrictID == "" || a.WardID == "":
		return nil, fmt.Errorf("%w: province, district and ward required", domain.ErrValidation)
	}
	return s.repo.AddAddress(ctx, a)
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return s.repo.DeleteAddress(ctx, userID, addressID)
}
