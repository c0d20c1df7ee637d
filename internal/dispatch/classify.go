package dispatch

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Severity ranks a classified send failure for control-flow purposes.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityRateLimited
	SeverityTransient
	SeverityPermanent
)

func (s Severity) String() string {
	switch s {
	case SeverityRateLimited:
		return "rate_limited"
	case SeverityTransient:
		return "transient"
	case SeverityPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Classification is the structured view of a raw transport failure.
// Description and Advice are used verbatim in audit reports.
type Classification struct {
	Severity    Severity
	Description string
	Advice      string
	WaitSeconds int // rate-limit only
}

// defaultFloodWait is applied when a flood-control error carries no
// embedded wait duration.
const defaultFloodWait = 300

// marker groups, checked in order against the error text; first match
// wins. Substring matching is case-sensitive: the variants cover both
// MTProto-style codes and Bot API phrasings.
var markerRules = []struct {
	markers  []string
	severity Severity
	desc     string
	advice   string
}{
	{
		markers:  []string{"Too Many Requests", "too many requests", "FLOOD_WAIT", "retry after"},
		severity: SeverityRateLimited,
		desc:     "flood control from Telegram",
		advice:   "pausing the round; will resume after the wait",
	},
	{
		markers:  []string{"CHAT_WRITE_FORBIDDEN", "write forbidden", "not enough rights to send"},
		severity: SeverityTransient,
		desc:     "no permission to write in this chat",
		advice:   "skipping; will retry next round",
	},
	{
		markers:  []string{"USER_BANNED_IN_CHANNEL", "banned", "was kicked"},
		severity: SeverityPermanent,
		desc:     "account is banned in this chat",
		advice:   "remove the destination from the list",
	},
	{
		markers:  []string{"CHANNEL_PRIVATE", "channel private", "chat was deleted", "deleted"},
		severity: SeverityPermanent,
		desc:     "chat is private or deleted",
		advice:   "remove the destination from the list",
	},
	{
		markers:  []string{"CHAT_ADMIN_REQUIRED", "admin required", "administrator rights"},
		severity: SeverityTransient,
		desc:     "admin rights required to post here",
		advice:   "skipping; will retry next round",
	},
	{
		markers:  []string{"PEER_ID_INVALID", "peer not found", "chat not found", "invalid peer"},
		severity: SeverityPermanent,
		desc:     "destination does not exist or is unreachable",
		advice:   "remove the destination from the list",
	},
}

// Classify maps a raw transport failure into a Classification.
// Pure and total: every error maps to exactly one severity, and the same
// input always yields the same result.
func Classify(err error) Classification {
	if err == nil {
		return Classification{
			Severity:    SeverityUnknown,
			Description: "no error",
			Advice:      "nothing to do",
		}
	}

	// Structured flood signal from telebot carries the wait directly.
	var flood tele.FloodError
	if errors.As(err, &flood) {
		wait := flood.RetryAfter
		if wait <= 0 {
			wait = defaultFloodWait
		}
		return Classification{
			Severity:    SeverityRateLimited,
			Description: "flood control from Telegram",
			Advice:      "pausing the round; will resume after the wait",
			WaitSeconds: wait,
		}
	}

	msg := err.Error()
	for _, rule := range markerRules {
		if !containsAny(msg, rule.markers) {
			continue
		}
		c := Classification{
			Severity:    rule.severity,
			Description: rule.desc,
			Advice:      rule.advice,
		}
		if rule.severity == SeverityRateLimited {
			c.WaitSeconds = firstInt(msg)
			if c.WaitSeconds == 0 {
				c.WaitSeconds = defaultFloodWait
			}
		}
		return c
	}

	return Classification{
		Severity:    SeverityUnknown,
		Description: "unclassified send failure: " + msg,
		Advice:      "skipping; will retry next round",
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// firstInt extracts the first unsigned integer embedded in s, 0 if none.
func firstInt(s string) int {
	n := 0
	found := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			found = true
			n = n*10 + int(r-'0')
			if n > 1<<30 {
				return n
			}
			continue
		}
		if found {
			break
		}
	}
	if !found {
		return 0
	}
	return n
}
