package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("videotheek-placeholder"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AccountService manages registration and authentication.
type AccountService struct {
	store    repository.Store
	validate *validator.Validate
	logger   zerolog.Logger
	cost     int
}

// NewAccountService constructs an AccountService.
func NewAccountService(store repository.Store, logger zerolog.Logger) *AccountService {
	return &AccountService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "accounts").Logger(),
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an account with role user.
func (s *AccountService) Register(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	return s.create(ctx, creds, model.RoleUser)
}

// CreateAdmin creates an account with role admin.
func (s *AccountService) CreateAdmin(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	return s.create(ctx, creds, model.RoleAdmin)
}

func (s *AccountService) create(ctx context.Context, creds model.Credentials, role model.Role) (*model.Account, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := s.validate.Struct(creds); err != nil {
		return nil, translateValidation(err)
	}
	// bcrypt limits the input in bytes, the validator counts characters.
	if len(creds.Password) > maxPasswordBytes {
		return nil, &ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{Username: creds.Username, PasswordHash: hash, Role: role}
	err = s.store.InTx(ctx, func(r repository.Repos) error {
		return r.Accounts().Create(ctx, account)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info().Str("user", account.Username).Str("role", string(role)).Msg("account created")
	return account, nil
}

// Authenticate checks the credentials and returns the matching account.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, creds model.Credentials) (*model.Account, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.store.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(creds.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(creds.Password)); err != nil {
		s.logger.Debug().Str("user", username).Msg("password mismatch")
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Get returns an account by ID.
func (s *AccountService) Get(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.store.Accounts().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}
