// Package policy applies eligibility rules before matching and turns a match
// result into an authentication decision.
package policy

import (
	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/logger"
	"github.com/amirhossein5/faceauth/internal/match"
)

// Matcher scores a probe against enrolled profiles.
type Matcher interface {
	Match(probe biometric.Sample, profiles []biometric.Profile) match.Result
}

// Candidate is one identity that may be authenticated.
type Candidate struct {
	UserID   biometric.UserID
	Eligible bool
	Profile  biometric.Profile
}

// Decision is the outcome of an authentication attempt. UserID is only
// meaningful when Recognized is set.
type Decision struct {
	UserID     biometric.UserID
	Distance   float64
	Recognized bool
	Considered int
}

// Policy authenticates probes against eligible candidates.
type Policy struct {
	matcher Matcher
	logger  *logger.Logger
}

func New(matcher Matcher, logger *logger.Logger) *Policy {
	return &Policy{matcher: matcher, logger: logger}
}

// Authenticate returns the recognized identity for probe, if any. Ineligible
// candidates are never passed to the matcher.
func (p *Policy) Authenticate(probe biometric.Sample, candidates []Candidate) Decision {
	profiles := make([]biometric.Profile, 0, len(candidates))
	for _, c := range candidates {
		if !c.Eligible {
			continue
		}
		profile := c.Profile
		profile.UserID = c.UserID
		profiles = append(profiles, profile)
	}

	if len(profiles) == 0 {
		p.logger.Info("Authentication policy: no eligible candidates",
			"candidates", len(candidates))
		return Decision{}
	}

	res := p.matcher.Match(probe, profiles)
	decision := Decision{
		Distance:   res.Distance,
		Considered: len(profiles),
	}
	if res.Accepted {
		decision.UserID = res.UserID
		decision.Recognized = true
	}

	p.logger.Info("Authentication policy: decision",
		"recognized", decision.Recognized,
		"user_id", decision.UserID,
		"distance", res.Distance,
		"found", res.Found,
		"considered", decision.Considered)

	return decision
}
