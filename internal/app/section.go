package app

import (
	"fmt"
	"net/url"

	"prepost-poll/internal/domain"
)

// Section is the one visible part of the page.
type Section string

const (
	SectionPrePoll   Section = "pre-poll"
	SectionPostPoll  Section = "post-poll"
	SectionAnalytics Section = "analytics"
)

// Sections lists every section in navigation order.
var Sections = []Section{SectionPrePoll, SectionPostPoll, SectionAnalytics}

func ParseSection(raw string) (Section, error) {
	for _, s := range Sections {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownSection, raw)
}

// Variant returns the poll variant a form section collects.
func (s Section) Variant() (domain.PollVariant, bool) {
	switch s {
	case SectionPrePoll:
		return domain.VariantPre, true
	case SectionPostPoll:
		return domain.VariantPost, true
	}
	return "", false
}

// NavLabel is the text of the section's navigation button.
func (s Section) NavLabel() string {
	switch s {
	case SectionPrePoll:
		return "Pre-Poll"
	case SectionPostPoll:
		return "Post-Poll"
	default:
		return "Analytics"
	}
}

// SectionForVariant is the form section that collects v.
func SectionForVariant(v domain.PollVariant) Section {
	if v == domain.VariantPost {
		return SectionPostPoll
	}
	return SectionPrePoll
}

// IsPresenter reports whether the query carries the presenter access code.
func IsPresenter(query url.Values, accessCode string) bool {
	return accessCode != "" && query.Get("access") == accessCode
}

// ResolveInitialSection picks the section shown on page load. A matching access code
// wins over the poll parameter; otherwise poll=post selects the post poll and
// anything else the pre poll.
func ResolveInitialSection(query url.Values, accessCode string) Section {
	if IsPresenter(query, accessCode) {
		return SectionAnalytics
	}
	if query.Get("poll") == string(domain.VariantPost) {
		return SectionPostPoll
	}
	return SectionPrePoll
}
