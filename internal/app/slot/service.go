// Package slot claims hosted save slots and issues the tokens that address
// them.
package slot

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/argon2"

	domainslot "skyisle/internal/domain/slot"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNameTaken          = errors.New("slot name already taken")
	ErrInvalidName        = errors.New("slot name must be 3-32 letters, digits, '-' or '_'")
	ErrWeakPassphrase     = errors.New("passphrase must be at least 6 characters")
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{3,32}$`)

type Service struct {
	db     *pgxpool.Pool
	secret []byte
	ttl    time.Duration
}

type Result struct {
	Slot  domainslot.Slot `json:"slot"`
	Token string          `json:"token"`
}

// Claims identify the slot a token grants access to.
type Claims struct {
	SlotID uuid.UUID
	Name   string
}

func NewService(db *pgxpool.Pool, secret string, ttl time.Duration) *Service {
	return &Service{db: db, secret: []byte(secret), ttl: ttl}
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// Claim creates a new slot protected by a passphrase.
func (s *Service) Claim(ctx context.Context, name, passphrase string) (Result, error) {
	name = normalizeName(name)
	if !namePattern.MatchString(name) {
		return Result{}, ErrInvalidName
	}
	if len(passphrase) < 6 {
		return Result{}, ErrWeakPassphrase
	}
	hash, err := hashPassphrase(passphrase)
	if err != nil {
		return Result{}, fmt.Errorf("hash passphrase: %w", err)
	}
	sl := domainslot.Slot{ID: uuid.New(), Name: name}
	err = s.db.QueryRow(ctx, `
INSERT INTO save_slots (id, name, passphrase_hash)
VALUES ($1, $2, $3)
RETURNING created_at
`, sl.ID, sl.Name, hash).Scan(&sl.CreatedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return Result{}, ErrNameTaken
		}
		return Result{}, fmt.Errorf("insert slot: %w", err)
	}
	token, err := s.issueToken(sl)
	if err != nil {
		return Result{}, err
	}
	return Result{Slot: sl, Token: token}, nil
}

// Open verifies the passphrase of an existing slot and issues a token.
func (s *Service) Open(ctx context.Context, name, passphrase string) (Result, error) {
	name = normalizeName(name)
	var sl domainslot.Slot
	var hash string
	err := s.db.QueryRow(ctx, `SELECT id, name, created_at, passphrase_hash FROM save_slots WHERE name = $1`, name).
		Scan(&sl.ID, &sl.Name, &sl.CreatedAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, fmt.Errorf("query slot: %w", err)
	}
	ok, err := verifyPassphrase(hash, passphrase)
	if err != nil || !ok {
		return Result{}, ErrInvalidCredentials
	}
	token, err := s.issueToken(sl)
	if err != nil {
		return Result{}, err
	}
	return Result{Slot: sl, Token: token}, nil
}

func (s *Service) ParseToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidCredentials
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidCredentials
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return Claims{}, ErrInvalidCredentials
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrInvalidCredentials
	}
	name, _ := mc["name"].(string)
	return Claims{SlotID: id, Name: name}, nil
}

func (s *Service) issueToken(sl domainslot.Slot) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  sl.ID.String(),
		"name": sl.Name,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashPassphrase(passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	const memory = 64 * 1024
	const iterations = 3
	const parallelism = 2
	const keyLength = 32
	hash := argon2.IDKey([]byte(passphrase), salt, iterations, memory, parallelism, keyLength)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", memory, iterations, parallelism, b64Salt, b64Hash), nil
}

func verifyPassphrase(encodedHash, passphrase string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}
	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("parse hash params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(passphrase), salt, iterations, memory, parallelism, uint32(len(hash)))
	if len(computed) != len(hash) {
		return false, nil
	}
	var diff byte
	for i := range hash {
		diff |= hash[i] ^ computed[i]
	}
	return diff == 0, nil
}
