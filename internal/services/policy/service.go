package policy

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kmorand/gatehouse/internal/storage"
)

// MinLength is the minimum acceptable password length in characters.
const MinLength = 12

// specialSet is the restricted special-character set. It is deliberately
// narrow (underscore, at sign, dollar sign only); do not widen it.
const specialSet = "_@$"

// Reason identifies a single failed password rule.
type Reason string

// Rule failure reasons
const (
	ReasonTooShort         Reason = "too_short"
	ReasonMissingLowercase Reason = "missing_lowercase"
	ReasonMissingUppercase Reason = "missing_uppercase"
	ReasonMissingDigit     Reason = "missing_digit"
	ReasonMissingSpecial   Reason = "missing_special"
	ReasonTooCommon        Reason = "too_common"
)

// Description returns the diagnostic text for a reason
func (r Reason) Description() string {
	switch r {
	case ReasonTooShort:
		return "length less than 12 characters"
	case ReasonMissingLowercase:
		return "missing lowercase letter"
	case ReasonMissingUppercase:
		return "missing uppercase letter"
	case ReasonMissingDigit:
		return "missing digit"
	case ReasonMissingSpecial:
		return "missing special character (_, @, $)"
	case ReasonTooCommon:
		return "password is too common"
	default:
		return string(r)
	}
}

// Result is the outcome of a policy check. Reasons lists every failed rule
// so the server log can itemize them; callers surface a single message.
type Result struct {
	OK      bool
	Reasons []Reason
}

// Service evaluates candidate passwords against the complexity rules and
// the common-password denylist. The denylist is loaded once at startup and
// read-only afterwards, so Check is safe for concurrent use.
type Service struct {
	storage storage.Store
	logger  *slog.Logger

	mu     sync.RWMutex
	common map[string]struct{}
	loaded bool
}

// New creates a new policy Service
func New(store storage.Store, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		logger:  logger,
		common:  make(map[string]struct{}),
	}
}

// LoadFromStorage loads the common-password set from storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	words, err := s.storage.GetDenylistWords(ctx)
	if err != nil {
		return err
	}
	s.loadWords(words)
	return nil
}

// LoadFromFile loads the common-password set from a file (one password per
// line) and saves it to storage for future use
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimRight(scanner.Text(), "\r\n")
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := s.storage.SaveDenylistWords(ctx, words); err != nil {
		return err
	}

	s.loadWords(words)
	return nil
}

// LoadWords directly loads a slice of passwords (useful for testing)
func (s *Service) LoadWords(words []string) {
	s.loadWords(words)
}

func (s *Service) loadWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Membership is byte-exact: no lowercasing, no normalization.
	s.common = make(map[string]struct{}, len(words))
	for _, word := range words {
		s.common[word] = struct{}{}
	}
	s.loaded = true
}

// IsLoaded returns whether the common-password set has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// WordCount returns the number of entries in the common-password set
func (s *Service) WordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.common)
}

// IsCommon reports whether the password appears in the common-password set
func (s *Service) IsCommon(password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.common[password]
	return ok
}

// Check evaluates a candidate password against every rule and returns all
// failures. An empty password simply fails the length rule. Length counts
// characters, not bytes; denylist comparison is byte-exact with no
// normalization.
func (s *Service) Check(password string) Result {
	var reasons []Reason

	if utf8.RuneCountInString(password) < MinLength {
		reasons = append(reasons, ReasonTooShort)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		reasons = append(reasons, ReasonMissingLowercase)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		reasons = append(reasons, ReasonMissingUppercase)
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		reasons = append(reasons, ReasonMissingDigit)
	}
	if !strings.ContainsAny(password, specialSet) {
		reasons = append(reasons, ReasonMissingSpecial)
	}
	if s.IsCommon(password) {
		reasons = append(reasons, ReasonTooCommon)
	}

	if len(reasons) > 0 {
		for _, r := range reasons {
			s.logger.Warn("password policy check failed", slog.String("reason", r.Description()))
		}
		return Result{OK: false, Reasons: reasons}
	}
	return Result{OK: true}
}
