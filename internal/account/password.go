// Package account guards the admin console: one shared password stored as a bcrypt hash,
// exchanged for short-lived signed session tokens.
package account

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted admin password.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrWeakPassword     = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	ErrSamePassword     = errors.New("new password must differ from the current one")
	ErrResetDisabled    = errors.New("password reset is disabled")
	ErrInvalidResetKey  = errors.New("invalid reset key")
	ErrInvalidSession   = errors.New("invalid or expired session")
	ErrMissingSecretKey = errors.New("session secret is required")
)

// Credential is the stored form of the admin password.
type Credential struct {
	Hash      string    `json:"hash"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Config defines dependencies required by Service.
type Config struct {
	Store           kv.Store
	Publisher       events.Publisher
	Logger          *zap.Logger
	DefaultPassword string
	ResetKey        string
	SessionSecret   []byte
	SessionIssuer   string
	SessionTTL      time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Service implements login, password rotation, reset and session validation.
type Service struct {
	store           kv.Store
	publisher       events.Publisher
	logger          *zap.Logger
	defaultPassword string
	resetKey        string
	sessions        *SessionIssuer
	cost            int

	// serialises read-modify-write of the credential within this process
	mu sync.Mutex
}

// NewService validates cfg and builds the service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("account: store is required")
	}
	if err := validateNewPassword(cfg.DefaultPassword); err != nil {
		return nil, fmt.Errorf("account: default password: %w", err)
	}
	sessions, err := NewSessionIssuer(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		store:           cfg.Store,
		publisher:       cfg.Publisher,
		logger:          logger,
		defaultPassword: cfg.DefaultPassword,
		resetKey:        cfg.ResetKey,
		sessions:        sessions,
		cost:            cost,
	}, nil
}

// stored is the credential as found in the store. Plain is set for the built-in default
// and for legacy plaintext values, which are compared directly.
type stored struct {
	Credential
	plain  string
	legacy bool
}

func (s *Service) load(ctx context.Context) (stored, error) {
	raw, err := s.store.Get(ctx, kv.KeyAdminPassword)
	if errors.Is(err, kv.ErrNotFound) {
		return stored{plain: s.defaultPassword}, nil
	}
	if err != nil {
		return stored{}, err
	}

	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		if legacy == "" {
			return stored{plain: s.defaultPassword}, nil
		}
		return stored{plain: legacy, legacy: true}, nil
	}

	var credential Credential
	if err := json.Unmarshal(raw, &credential); err != nil {
		return stored{}, fmt.Errorf("account: decode credential: %w", err)
	}
	if credential.Hash == "" {
		return stored{Credential: credential, plain: s.defaultPassword}, nil
	}
	return stored{Credential: credential}, nil
}

func (s *Service) verify(current stored, password string) bool {
	if current.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(current.Hash), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(current.plain), []byte(password)) == 1
}

func (s *Service) save(ctx context.Context, password string, version int) (Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Credential{}, fmt.Errorf("account: hash password: %w", err)
	}
	credential := Credential{Hash: string(hash), Version: version, UpdatedAt: time.Now().UTC()}
	if err := kv.SetJSON(ctx, s.store, kv.KeyAdminPassword, credential); err != nil {
		return Credential{}, err
	}
	return credential, nil
}

// Check verifies password and issues a session. A legacy plaintext credential is upgraded
// to a hash on the first successful check, keeping its version.
func (s *Service) Check(ctx context.Context, password string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if !s.verify(current, password) {
		return nil, ErrInvalidPassword
	}
	if current.legacy {
		if _, err := s.save(ctx, password, current.Version); err != nil {
			s.logger.Warn("legacy admin password upgrade failed", zap.Error(err))
		} else {
			s.logger.Info("legacy admin password upgraded to bcrypt")
		}
	}
	return s.sessions.Issue(current.Version)
}

// ChangePassword rotates the password. Every session issued before the change stops
// validating; the returned session is the only one that works afterwards.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	// policy errors only once the caller has proven the current password
	if !s.verify(current, currentPassword) {
		return nil, ErrInvalidPassword
	}
	if err := validateNewPassword(newPassword); err != nil {
		return nil, err
	}
	if newPassword == currentPassword {
		return nil, ErrSamePassword
	}
	credential, err := s.save(ctx, newPassword, current.Version+1)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, credential.Version)
	return s.sessions.Issue(credential.Version)
}

// AuthorizeReset checks the operator reset key. With no key configured resets are disabled.
func (s *Service) AuthorizeReset(key string) error {
	if s.resetKey == "" {
		return ErrResetDisabled
	}
	if subtle.ConstantTimeCompare([]byte(s.resetKey), []byte(key)) != 1 {
		return ErrInvalidResetKey
	}
	return nil
}

// ResetPassword restores the default password whatever the prior state and invalidates
// every session.
func (s *Service) ResetPassword(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := 0
	if current, err := s.load(ctx); err == nil {
		version = current.Version
	} else {
		s.logger.Warn("unreadable admin credential overwritten by reset", zap.Error(err))
	}
	credential, err := s.save(ctx, s.defaultPassword, version+1)
	if err != nil {
		return err
	}
	s.logger.Warn("admin password reset to default", zap.Int("version", credential.Version))
	s.announce(ctx, credential.Version)
	return nil
}

// Authenticate validates a session token against the current credential version.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if claims.PasswordVersion != current.Version {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func validateNewPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func (s *Service) announce(ctx context.Context, version int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.New(events.TopicPasswordChanged, version)); err != nil {
		s.logger.Warn("event publish failed", zap.String("topic", string(events.TopicPasswordChanged)), zap.Error(err))
	}
}
