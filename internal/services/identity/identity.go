// Package identity handles account registration, login and the JWT
// session tokens the API authenticates with.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fundwire/ledgerd/internal/config"
	"github.com/fundwire/ledgerd/internal/repos/accounts"
	accountspg "github.com/fundwire/ledgerd/internal/repos/accounts/postgres"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Service struct {
	accounts       accounts.Accounts
	jwtSecret      []byte
	tokenTTL       time.Duration
	initialBalance int64
}

func New(db *sql.DB, authCfg config.AuthConfig, ledgerCfg config.LedgerConfig) *Service {
	return &Service{
		accounts:       accountspg.New(db),
		jwtSecret:      []byte(authCfg.JWTSecret),
		tokenTTL:       authCfg.TokenTTL,
		initialBalance: ledgerCfg.InitialBalanceMinor,
	}
}

// Register creates an account with the configured starting balance and
// returns it together with a fresh session token.
func (s *Service) Register(ctx context.Context, email, name, password string) (*accounts.Account, string, error) {
	if email == "" || name == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email, name and password are required", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	acc, err := s.accounts.Create(ctx, email, name, string(hash), s.initialBalance)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}

		return nil, "", fmt.Errorf("create account: %w", err)
	}

	token, err := s.issueToken(acc.ID)
	if err != nil {
		return nil, "", err
	}

	return acc, token, nil
}

// Login verifies the credentials and returns the account with a fresh
// session token. Unknown email and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*accounts.Account, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredentials
		}

		return nil, "", fmt.Errorf("load account: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(acc.ID)
	if err != nil {
		return nil, "", err
	}

	return acc, token, nil
}

// Profile loads the account behind an authenticated token.
func (s *Service) Profile(ctx context.Context, accountID int64) (*accounts.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

func (s *Service) issueToken(accountID int64) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// VerifyToken validates a session token and returns the account id it
// was issued for.
func (s *Service) VerifyToken(tokenString string) (int64, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	return accountID, nil
}
