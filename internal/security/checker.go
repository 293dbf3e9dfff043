// Package security screens inbound form submissions for bot-like behavior
// before any field validation or email dispatch happens. The verdict is a
// plain pass/fail with reasons; nothing in this package returns an HTTP
// status or throws past the caller.
package security

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Failure reasons. These are logged server-side for diagnostics; handlers
// surface only a generic message to the client so automated senders learn
// nothing about which check tripped.
const (
	ReasonHoneypot    = "honeypot triggered"
	ReasonTimingFast  = "submitted faster than a human can fill the form"
	ReasonTimingBad   = "submission timestamp missing or malformed"
	ReasonBadToken    = "form token invalid or expired"
	ReasonRateLimited = "rate limit exceeded for this address"
	ReasonSpamContent = "content matches spam indicators"
)

// Verdict is the outcome of screening one submission.
type Verdict struct {
	Passed  bool
	Reasons []string
}

// Input carries everything the checker looks at for one submission.
type Input struct {
	// ClientIP keys the rate limiter.
	ClientIP string
	// Honeypot is the hidden field's value; humans never see the field so
	// anything non-empty is a bot signal.
	Honeypot string
	// Timestamp is the client-reported form render time in Unix
	// milliseconds, as a string straight from the request body.
	Timestamp string
	// Token is the optional signed form token. When present and valid its
	// issued-at supersedes Timestamp.
	Token string
	// Content is the submission's combined free-text, scanned by the
	// content heuristic.
	Content string
}

// Checker evaluates submissions against the honeypot, timing, rate-limit,
// and content checks in that order. All failures are collected so the log
// line shows everything that tripped, not just the first reason.
type Checker struct {
	minFillTime  time.Duration
	limiter      Limiter
	tokens       *TokenIssuer
	maxURLs      int
	spamKeywords []string
	logger       *slog.Logger
	now          func() time.Time
}

// CheckerConfig contains configuration for a Checker.
type CheckerConfig struct {
	MinFillTime  time.Duration
	Limiter      Limiter
	Tokens       *TokenIssuer
	MaxURLs      int
	SpamKeywords []string
	Logger       *slog.Logger
}

// NewChecker creates a Checker.
func NewChecker(cfg CheckerConfig) *Checker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	keywords := make([]string, len(cfg.SpamKeywords))
	for i, kw := range cfg.SpamKeywords {
		keywords[i] = strings.ToLower(kw)
	}
	return &Checker{
		minFillTime:  cfg.MinFillTime,
		limiter:      cfg.Limiter,
		tokens:       cfg.Tokens,
		maxURLs:      cfg.MaxURLs,
		spamKeywords: keywords,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)

// Check screens one submission and returns the verdict.
func (c *Checker) Check(in Input) Verdict {
	var reasons []string

	if strings.TrimSpace(in.Honeypot) != "" {
		reasons = append(reasons, ReasonHoneypot)
	}

	if reason := c.checkTiming(in); reason != "" {
		reasons = append(reasons, reason)
	}

	if c.limiter != nil && !c.limiter.Allow(in.ClientIP) {
		reasons = append(reasons, ReasonRateLimited)
	}

	if c.looksLikeSpam(in.Content) {
		reasons = append(reasons, ReasonSpamContent)
	}

	if len(reasons) > 0 {
		c.logger.Warn("submission rejected by security check",
			"ip", in.ClientIP,
			"reasons", strings.Join(reasons, "; "),
		)
		return Verdict{Passed: false, Reasons: reasons}
	}

	return Verdict{Passed: true}
}

// checkTiming validates the render-to-submit interval. A signed token wins
// over the raw client timestamp; with neither usable the submission fails.
func (c *Checker) checkTiming(in Input) string {
	now := c.now()

	if in.Token != "" && c.tokens != nil && c.tokens.Enabled() {
		renderedAt, err := c.tokens.RenderedAt(in.Token)
		if err != nil {
			return ReasonBadToken
		}
		if now.Sub(renderedAt) < c.minFillTime {
			return ReasonTimingFast
		}
		return ""
	}

	if strings.TrimSpace(in.Timestamp) == "" {
		return ReasonTimingBad
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(in.Timestamp), 10, 64)
	if err != nil {
		return ReasonTimingBad
	}

	renderedAt := time.UnixMilli(millis)
	if renderedAt.After(now) {
		return ReasonTimingBad
	}
	if now.Sub(renderedAt) < c.minFillTime {
		return ReasonTimingFast
	}

	return ""
}

// looksLikeSpam applies the soft content heuristic: too many links, or any
// keyword from the indicator list.
func (c *Checker) looksLikeSpam(content string) bool {
	if content == "" {
		return false
	}

	if c.maxURLs > 0 && len(urlPattern.FindAllString(content, c.maxURLs+1)) > c.maxURLs {
		return true
	}

	lower := strings.ToLower(content)
	for _, kw := range c.spamKeywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}

	return false
}
