// Package auth guards the app with a single 6-digit PIN. A security question
// lets the user reset a forgotten PIN.
package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"

	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

var (
	ErrPINFormat     = errors.New("PIN must be 6 digits")
	ErrAlreadySet    = errors.New("PIN is already set")
	ErrNotSet        = errors.New("no PIN has been set")
	ErrInvalidPIN    = errors.New("invalid PIN")
	ErrInvalidAnswer = errors.New("invalid security answer")
)

// Store persists the single auth record.
type Store interface {
	GetAuth(ctx context.Context) (model.AuthRecord, error)
	SaveAuth(ctx context.Context, rec model.AuthRecord) error
}

// Service sets, checks and resets the PIN.
type Service struct {
	store Store
	key   []byte
	cost  int
}

// NewService derives the answer-sealing key from secret.
func NewService(st Store, secret string) (*Service, error) {
	key, err := scrypt.Key([]byte(secret), []byte("tally-auth"), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("deriving encryption key: %w", err)
	}
	return &Service{store: st, key: key, cost: bcrypt.DefaultCost}, nil
}

// ValidPIN reports whether pin is exactly six ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normalizeAnswer(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}

// IsSet reports whether a PIN exists.
func (s *Service) IsSet(ctx context.Context) (bool, error) {
	rec, err := s.store.GetAuth(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.PinHash != "", nil
}

// Setup stores the first PIN with its security question. It fails with
// ErrAlreadySet once a PIN exists; use Reset to change it.
func (s *Service) Setup(ctx context.Context, pin, question, answer string) error {
	if !ValidPIN(pin) {
		return ErrPINFormat
	}
	var errs model.ValidationErrors
	if strings.TrimSpace(question) == "" {
		errs = append(errs, model.ValidationError{Field: "securityQuestion", Message: "Security question is required"})
	}
	if strings.TrimSpace(answer) == "" {
		errs = append(errs, model.ValidationError{Field: "securityAnswer", Message: "Security answer is required"})
	}
	if len(errs) > 0 {
		return errs
	}

	set, err := s.IsSet(ctx)
	if err != nil {
		return err
	}
	if set {
		return ErrAlreadySet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return fmt.Errorf("hashing PIN: %w", err)
	}
	sealed, nonce, err := s.seal(normalizeAnswer(answer))
	if err != nil {
		return err
	}
	return s.store.SaveAuth(ctx, model.AuthRecord{
		PinHash:          string(hash),
		SecurityQuestion: strings.TrimSpace(question),
		AnswerCipher:     sealed,
		AnswerNonce:      nonce,
	})
}

// Verify checks pin against the stored hash.
func (s *Service) Verify(ctx context.Context, pin string) error {
	if !ValidPIN(pin) {
		return ErrPINFormat
	}
	rec, err := s.record(ctx)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PinHash), []byte(pin)) != nil {
		return ErrInvalidPIN
	}
	return nil
}

// SecurityQuestion returns the question shown on the reset screen.
func (s *Service) SecurityQuestion(ctx context.Context) (string, error) {
	rec, err := s.record(ctx)
	if err != nil {
		return "", err
	}
	if rec.SecurityQuestion == "" {
		return "", ErrNotSet
	}
	return rec.SecurityQuestion, nil
}

// Reset replaces the PIN after checking the security answer.
func (s *Service) Reset(ctx context.Context, newPIN, answer string) error {
	if !ValidPIN(newPIN) {
		return ErrPINFormat
	}
	if strings.TrimSpace(answer) == "" {
		return model.ValidationErrors{{Field: "securityAnswer", Message: "Security answer is required"}}
	}
	rec, err := s.record(ctx)
	if err != nil {
		return err
	}
	stored, err := s.open(rec.AnswerCipher, rec.AnswerNonce)
	if err != nil {
		return ErrInvalidAnswer
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(normalizeAnswer(answer))) != 1 {
		return ErrInvalidAnswer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), s.cost)
	if err != nil {
		return fmt.Errorf("hashing PIN: %w", err)
	}
	rec.PinHash = string(hash)
	return s.store.SaveAuth(ctx, rec)
}

func (s *Service) record(ctx context.Context) (model.AuthRecord, error) {
	rec, err := s.store.GetAuth(ctx)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.PinHash == "") {
		return model.AuthRecord{}, ErrNotSet
	}
	return rec, err
}

func (s *Service) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func (s *Service) seal(plain string) (sealed, nonce []byte, err error) {
	gcm, err := s.aead()
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}
	return gcm.Seal(nil, nonce, []byte(plain), nil), nonce, nil
}

func (s *Service) open(sealed, nonce []byte) (string, error) {
	gcm, err := s.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("bad nonce")
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
