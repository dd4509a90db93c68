package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/match"
	"github.com/amirhossein5/faceauth/internal/testutil"
)

type recordingMatcher struct {
	calls    int
	profiles []biometric.Profile
	next     Matcher
}

func (m *recordingMatcher) Match(probe biometric.Sample, profiles []biometric.Profile) match.Result {
	m.calls++
	m.profiles = profiles
	return m.next.Match(probe, profiles)
}

func candidate(id biometric.UserID, eligible bool, vectors ...[]float32) Candidate {
	c := Candidate{UserID: id, Eligible: eligible}
	for _, v := range vectors {
		c.Profile.Samples = append(c.Profile.Samples, biometric.Sample{Vector: v})
	}
	return c
}

func newPolicy() (*Policy, *recordingMatcher) {
	m := &recordingMatcher{next: match.NewEngine(match.DefaultThreshold, nil)}
	return New(m, testutil.MakeNoopLogger()), m
}

func TestAuthenticate_Recognized(t *testing.T) {
	p, m := newPolicy()

	d := p.Authenticate(
		biometric.Sample{Vector: []float32{0, 0}},
		[]Candidate{candidate(5, true, []float32{0, 1})},
	)

	require.True(t, d.Recognized)
	assert.Equal(t, biometric.UserID(5), d.UserID)
	assert.InDelta(t, 1.0, d.Distance, 1e-12)
	assert.Equal(t, 1, d.Considered)
	assert.Equal(t, 1, m.calls)
}

func TestAuthenticate_BlockedNeverMatched(t *testing.T) {
	p, m := newPolicy()

	d := p.Authenticate(
		biometric.Sample{Vector: []float32{0, 0}},
		[]Candidate{
			candidate(1, false, []float32{0, 0}),
			candidate(2, true, []float32{0, 3}),
		},
	)

	require.True(t, d.Recognized)
	assert.Equal(t, biometric.UserID(2), d.UserID)
	require.Len(t, m.profiles, 1)
	assert.Equal(t, biometric.UserID(2), m.profiles[0].UserID)
}

func TestAuthenticate_OnlyBlockedCandidate(t *testing.T) {
	p, m := newPolicy()

	d := p.Authenticate(
		biometric.Sample{Vector: []float32{0, 0}},
		[]Candidate{candidate(1, false, []float32{0, 0})},
	)

	assert.False(t, d.Recognized)
	assert.Zero(t, d.UserID)
	assert.Zero(t, m.calls)
}

func TestAuthenticate_NoCandidatesSkipsMatcher(t *testing.T) {
	p, m := newPolicy()

	d := p.Authenticate(biometric.Sample{Vector: []float32{0, 0}}, nil)

	assert.False(t, d.Recognized)
	assert.Zero(t, m.calls)
}

func TestAuthenticate_AboveThreshold(t *testing.T) {
	p, _ := newPolicy()

	d := p.Authenticate(
		biometric.Sample{Vector: []float32{0, 0}},
		[]Candidate{candidate(1, true, []float32{0, match.DefaultThreshold})},
	)

	assert.False(t, d.Recognized)
	assert.Zero(t, d.UserID)
	assert.Equal(t, match.DefaultThreshold, d.Distance)
}

func TestAuthenticate_CandidateIDWins(t *testing.T) {
	p, _ := newPolicy()

	c := candidate(9, true, []float32{0, 0})
	c.Profile.UserID = 1

	d := p.Authenticate(biometric.Sample{Vector: []float32{0, 0}}, []Candidate{c})
	assert.Equal(t, biometric.UserID(9), d.UserID)
}
