package service

import (
	"fmt"
	"regexp"
	"strings"
)

// CannedResponse answers any message that mentions one of its keys.
type CannedResponse struct {
	Keys  []string
	Reply string
}

type cannedMatcher struct {
	pattern *regexp.Regexp
	reply   string
}

// CannedResponses matches keys case-insensitively on word boundaries, so
// "hi" matches "Hi there" but not "Chihuahua".
type CannedResponses struct {
	matchers []cannedMatcher
}

func NewCannedResponses(responses []CannedResponse) *CannedResponses {
	c := &CannedResponses{}
	for _, r := range responses {
		if len(r.Keys) == 0 {
			continue
		}
		quoted := make([]string, len(r.Keys))
		for i, k := range r.Keys {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(k))
		}
		c.matchers = append(c.matchers, cannedMatcher{
			pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
			reply:   r.Reply,
		})
	}
	return c
}

// Match returns the first canned reply whose key appears in message.
func (c *CannedResponses) Match(message string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, m := range c.matchers {
		if m.pattern.MatchString(message) {
			return m.reply, true
		}
	}
	return "", false
}

// DefaultCannedResponses covers greetings and the clinic FAQ.
func DefaultCannedResponses(clinicName string) []CannedResponse {
	return []CannedResponse{
		{
			Keys:  []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
			Reply: fmt.Sprintf("Hello! 🐾 Welcome to %s. I can help you book an appointment, check available slots, or answer questions about our services.", clinicName),
		},
		{
			Keys:  []string{"thank you", "thanks"},
			Reply: fmt.Sprintf("You're welcome! Thank you for choosing %s. 🐾", clinicName),
		},
		{
			Keys:  []string{"opening hours", "clinic hours", "what time do you open", "when are you open"},
			Reply: "🕘 We're open Monday to Saturday, 9 AM - 6 PM. We're closed on Sundays.",
		},
		{
			Keys:  []string{"what services", "which services", "services do you offer"},
			Reply: "🏥 We offer general checkups, vaccinations, surgery, emergency care, dental care, grooming and boarding.",
		},
		{
			Keys:  []string{"emergency"},
			Reply: "🚨 For emergencies please call us directly right away. We handle emergency cases during opening hours.",
		},
	}
}
