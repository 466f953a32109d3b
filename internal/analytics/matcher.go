package analytics

import (
	"strings"
	"unicode/utf8"

	"github.com/salesops/crm-dashboard/internal/domain"
)

const (
	minMatchLength = 3
	minTokenLength = 3
)

// leadMatcher finds the first lead whose name resembles a deal title. Two
// names resemble each other when either contains the other, or when a word of
// at least three letters from one appears anywhere inside the other.
type leadMatcher struct {
	leads []domain.Lead
	names []string
	words [][]string
}

func newLeadMatcher(leads []domain.Lead) *leadMatcher {
	m := &leadMatcher{
		leads: leads,
		names: make([]string, len(leads)),
		words: make([][]string, len(leads)),
	}
	for i := range leads {
		name := normalizeName(leads[i].MatchName())
		if utf8.RuneCountInString(name) < minMatchLength {
			continue
		}
		m.names[i] = name
		m.words[i] = matchTokens(name)
	}
	return m
}

// Match returns the first lead, in snapshot order, resembling title.
func (m *leadMatcher) Match(title string) (*domain.Lead, bool) {
	t := normalizeName(title)
	if utf8.RuneCountInString(t) < minMatchLength {
		return nil, false
	}
	titleWords := matchTokens(t)
	for i, name := range m.names {
		if name != "" && resembles(t, titleWords, name, m.words[i]) {
			return &m.leads[i], true
		}
	}
	return nil, false
}

func resembles(title string, titleWords []string, name string, nameWords []string) bool {
	if strings.Contains(name, title) || strings.Contains(title, name) {
		return true
	}
	for _, w := range titleWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	for _, w := range nameWords {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

// MatchLead links a deal title to the first resembling lead.
func MatchLead(title string, leads []domain.Lead) (*domain.Lead, bool) {
	return newLeadMatcher(leads).Match(title)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matchTokens(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLength {
			out = append(out, f)
		}
	}
	return out
}
