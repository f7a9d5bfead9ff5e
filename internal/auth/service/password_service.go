package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2SaltLen = 16
	argon2KeyLen  = 32
)

type Argon2Params struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
}

// PasswordService hashes with argon2id and verifies argon2id or legacy
// bcrypt hashes. Verification takes the same wall-clock time whether or
// not a stored hash exists: unknown users are compared against a
// pre-computed dummy hash instead of short-circuiting.
type PasswordService struct {
	params    Argon2Params
	dummyHash string
}

func NewPasswordService(params Argon2Params) *PasswordService {
	s := &PasswordService{params: params}
	// The dummy hash only has to be structurally valid; its input is
	// irrelevant because the comparison result is discarded.
	dummy, err := s.Hash("dummy-password-for-timing-equalization")
	if err != nil {
		// Hash only fails on a broken random source; fall back to a fixed
		// well-formed hash so Verify still burns comparable time.
		dummy = fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, params.MemoryKB, params.Time, params.Parallelism,
			base64.RawStdEncoding.EncodeToString(make([]byte, argon2SaltLen)),
			base64.RawStdEncoding.EncodeToString(make([]byte, argon2KeyLen)))
	}
	s.dummyHash = dummy
	return s
}

func (s *PasswordService) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, s.params.Time, s.params.MemoryKB, s.params.Parallelism, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.MemoryKB,
		s.params.Time,
		s.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify never returns an error: malformed hashes are treated as
// non-matching, and an empty hash (unknown user or magic-link account) is
// compared against the dummy hash so the caller's timing is unchanged.
func (s *PasswordService) Verify(password, storedHash string) bool {
	if storedHash == "" {
		s.compare(password, s.dummyHash)
		return false
	}
	return s.compare(password, storedHash)
}

func (s *PasswordService) compare(password, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, "$2a$") || strings.HasPrefix(encodedHash, "$2b$") || strings.HasPrefix(encodedHash, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	}

	salt, key, params, ok := parseArgon2Hash(encodedHash)
	if !ok {
		// Burn the same work as a real comparison before rejecting.
		argon2.IDKey([]byte(password), make([]byte, argon2SaltLen), s.params.Time, s.params.MemoryKB, s.params.Parallelism, argon2KeyLen)
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKB, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1
}

// NeedsRehash reports whether the stored hash should be upgraded to the
// configured parameters. Legacy bcrypt hashes always qualify.
func (s *PasswordService) NeedsRehash(storedHash string) bool {
	if storedHash == "" {
		return false
	}
	if strings.HasPrefix(storedHash, "$2a$") || strings.HasPrefix(storedHash, "$2b$") || strings.HasPrefix(storedHash, "$2y$") {
		return true
	}
	_, _, params, ok := parseArgon2Hash(storedHash)
	if !ok {
		return false
	}
	return params.MemoryKB < s.params.MemoryKB ||
		params.Time < s.params.Time ||
		params.Parallelism < s.params.Parallelism
}

func parseArgon2Hash(encodedHash string) (salt, key []byte, params Argon2Params, ok bool) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, Argon2Params{}, false
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return nil, nil, Argon2Params{}, false
	}

	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, nil, Argon2Params{}, false
		}
		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return nil, nil, Argon2Params{}, false
		}
		switch kv[0] {
		case "m":
			params.MemoryKB = uint32(v)
		case "t":
			params.Time = uint32(v)
		case "p":
			params.Parallelism = uint8(v)
		default:
			return nil, nil, Argon2Params{}, false
		}
	}
	if params.MemoryKB == 0 || params.Time == 0 || params.Parallelism == 0 {
		return nil, nil, Argon2Params{}, false
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, nil, Argon2Params{}, false
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, Argon2Params{}, false
	}

	return salt, key, params, true
}
