// Package redaction scrubs secrets from result data and rendered output
// before anything leaves the process.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

const redactedMarker = "[REDACTED]"

// minTrackedLength keeps short values such as "on" from being scrubbed
// out of unrelated text.
const minTrackedLength = 4

// Redactor sanitizes sensitive data. It is safe for concurrent use; only
// the tracked values change after construction.
type Redactor struct {
	// nil when gitleaks is disabled or failed to load
	gitleaksDetector *detect.Detector
	patterns         []*regexp.Regexp
	paths            []string
	salt             string
	tracked          []string
	mu               sync.RWMutex
	hashMode         bool
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Logger receives a warning when the gitleaks rules cannot be loaded.
	Logger *slog.Logger
	// Salt keys the HMAC used in hash mode.
	Salt string
	// Patterns are extra regular expressions to redact (e.g. "INT-[A-Z0-9]{16}").
	Patterns []string
	// Paths are dotted data paths whose string values are always redacted.
	// A bare key ("password") matches at any depth; "*" matches one segment.
	Paths []string
	// HashMode replaces secrets with a keyed hash instead of [REDACTED],
	// so equal secrets stay correlatable across results.
	HashMode        bool
	DisableGitleaks bool
}

// New creates a Redactor. Invalid custom patterns are an error; a gitleaks
// configuration that fails to load falls back to the built-in patterns.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		paths:    cfg.Paths,
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		detector, err := newGitleaksDetector()
		if err != nil {
			logger := cfg.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("gitleaks rules unavailable, using built-in patterns only", "error", err)
		} else {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector loads the gitleaks default rule set.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// Track registers a known secret value, such as a resolved manifest
// secret, to be scrubbed wherever it appears.
func (r *Redactor) Track(value string) {
	if len(value) < minTrackedLength {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.tracked {
		if v == value {
			return
		}
	}
	r.tracked = append(r.tracked, value)
}

// Redact returns a sanitized copy of data. Maps and slices are copied,
// never modified; other values are returned as is.
func (r *Redactor) Redact(data any) any {
	return r.walk(data, "")
}

// RedactData sanitizes a result data bag.
func (r *Redactor) RedactData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out, _ := r.walk(data, "").(map[string]any)
	return out
}

// ScrubString replaces every detected secret in input. Tracked values are
// replaced first, then gitleaks findings, then the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := input
	r.mu.RLock()
	for _, secret := range r.tracked {
		result = strings.ReplaceAll(result, secret, r.replacement(secret))
	}
	r.mu.RUnlock()

	if r.gitleaksDetector != nil {
		for _, finding := range r.gitleaksDetector.Detect(detect.Fragment{Raw: result}) {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}
	return result
}

// walk copies data, redacting strings at configured paths and scrubbing
// all others. Slice elements share their parent's path.
func (r *Redactor) walk(data any, currentPath string) any {
	switch v := data.(type) {
	case string:
		if r.isPathMatch(currentPath) {
			return r.replacement(v)
		}
		return r.ScrubString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = r.walk(val, join(currentPath, k))
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = r.walk(val, join(currentPath, k))
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = r.walk(val, currentPath)
		}
		return out
	case []string:
		out := make([]string, len(v))
		for i, val := range v {
			out[i], _ = r.walk(val, currentPath).(string)
		}
		return out
	case error:
		return r.ScrubString(v.Error())
	default:
		return v
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isPathMatch reports whether p matches a configured path. A configured
// path matches exactly, as a dotted suffix, or segment by segment with
// "*" wildcards.
func (r *Redactor) isPathMatch(p string) bool {
	if p == "" {
		return false
	}
	for _, want := range r.paths {
		if want == p || strings.HasSuffix(p, "."+want) {
			return true
		}
		if strings.Contains(want, "*") && segmentsMatch(want, p) {
			return true
		}
	}
	return false
}

func segmentsMatch(pattern, p string) bool {
	patternSegs := strings.Split(pattern, ".")
	pathSegs := strings.Split(p, ".")
	if len(patternSegs) > len(pathSegs) {
		return false
	}
	// Anchor at the end, like a suffix match.
	pathSegs = pathSegs[len(pathSegs)-len(patternSegs):]
	for i, seg := range patternSegs {
		ok, err := path.Match(seg, pathSegs[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return redactedMarker
}

// hash returns a truncated HMAC-SHA256 of the secret keyed by the salt.
// Format: [hmac:a1b2c3d4e5f6a7b8]
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(mac.Sum(nil))[:16])
}

// defaultPatterns catch common high-confidence secrets when gitleaks is off.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// GitHub token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
}
