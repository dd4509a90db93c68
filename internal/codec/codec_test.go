package codec

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

var utc = Codec{Location: time.UTC}

func randomSamples(r *rand.Rand, n, dim int) []biometric.Sample {
	samples := make([]biometric.Sample, n)
	for i := range samples {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(r.Uint32())
		}
		samples[i] = biometric.Sample{
			Vector:     v,
			CapturedAt: time.Date(2026, 2, 14, 10, 30, i, r.Intn(1e9), time.UTC),
		}
	}
	return samples
}

func assertBitExact(t *testing.T, want, got []biometric.Sample) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Len(t, got[i].Vector, len(want[i].Vector), "sample %d", i)
		for j := range want[i].Vector {
			assert.Equal(t, math.Float32bits(want[i].Vector[j]), math.Float32bits(got[i].Vector[j]),
				"sample %d component %d", i, j)
		}
		assert.True(t, want[i].CapturedAt.Equal(got[i].CapturedAt),
			"sample %d: want %v, got %v", i, want[i].CapturedAt, got[i].CapturedAt)
	}
}

func TestRoundTrip_RandomBits(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 1; n <= biometric.EnrollmentQuota; n++ {
		samples := randomSamples(r, n, biometric.Dimension)

		text, err := utc.Encode(samples)
		require.NoError(t, err)
		require.NotEmpty(t, text)

		decoded, err := utc.Decode(text)
		require.NoError(t, err)
		assertBitExact(t, samples, decoded)
	}
}

func TestRoundTrip_SpecialValues(t *testing.T) {
	nanPayload := math.Float32frombits(0x7fc00abc)
	samples := []biometric.Sample{{
		Vector: []float32{
			0, float32(math.Copysign(0, -1)), nanPayload,
			float32(math.Inf(1)), float32(math.Inf(-1)),
			math.SmallestNonzeroFloat32, math.MaxFloat32,
		},
		CapturedAt: time.Date(2026, 2, 14, 10, 30, 0, 1, time.UTC),
	}}

	text, err := utc.Encode(samples)
	require.NoError(t, err)

	decoded, err := utc.Decode(text)
	require.NoError(t, err)
	assertBitExact(t, samples, decoded)
}

func TestRoundTrip_LocalLocation(t *testing.T) {
	loc := time.FixedZone("farm", 3600)
	c := Codec{Location: loc}
	samples := []biometric.Sample{{
		Vector:     []float32{0.25, -1},
		CapturedAt: time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
	}}

	text, err := c.Encode(samples)
	require.NoError(t, err)
	assert.Contains(t, text, `"capturedAt":"2026-02-14T10:30:00"`)

	decoded, err := c.Decode(text)
	require.NoError(t, err)
	assertBitExact(t, samples, decoded)
}

func TestEncode_Format(t *testing.T) {
	samples := []biometric.Sample{
		{Vector: []float32{1.0, -2.5}, CapturedAt: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)},
		{Vector: []float32{1.0}, CapturedAt: time.Date(2026, 2, 14, 10, 30, 1, 500000000, time.UTC)},
	}

	text, err := utc.Encode(samples)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"embedding":"AACAPwAAIMA=","capturedAt":"2026-02-14T10:30:00"},`+
			`{"embedding":"AACAPw==","capturedAt":"2026-02-14T10:30:01.5"}]`,
		text)
}

func TestEncode_Empty(t *testing.T) {
	text, err := utc.Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = utc.Encode([]biometric.Sample{})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestEncode_EmptyVector(t *testing.T) {
	_, err := utc.Encode([]biometric.Sample{{CapturedAt: time.Now()}})
	assert.ErrorIs(t, err, biometric.ErrFormat)
}

func TestDecode_NoEnrollment(t *testing.T) {
	for _, text := range []string{"", "   ", "null", "[]"} {
		samples, err := utc.Decode(text)
		require.NoError(t, err, "input %q", text)
		assert.Empty(t, samples, "input %q", text)
	}
}

func TestDecode_AcceptsMinutePrecision(t *testing.T) {
	samples, err := utc.Decode(`[{"embedding":"AACAPw==","capturedAt":"2026-02-14T10:30"}]`)
	require.NoError(t, err)

	want := []biometric.Sample{{
		Vector:     []float32{1},
		CapturedAt: time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC),
	}}
	if diff := cmp.Diff(want, samples); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "not json", text: "garbage"},
		{name: "object instead of array", text: `{"embedding":"AACAPw=="}`},
		{name: "truncated json", text: `[{"embedding":"AACAPw==","capturedAt":"2026-02-14T10:30:00"`},
		{name: "null entry", text: `[null]`},
		{name: "missing embedding", text: `[{"capturedAt":"2026-02-14T10:30:00"}]`},
		{name: "missing timestamp", text: `[{"embedding":"AACAPw=="}]`},
		{name: "invalid base64", text: `[{"embedding":"@@@","capturedAt":"2026-02-14T10:30:00"}]`},
		{name: "not a multiple of four bytes", text: `[{"embedding":"AACA","capturedAt":"2026-02-14T10:30:00"}]`},
		{name: "empty embedding", text: `[{"embedding":"","capturedAt":"2026-02-14T10:30:00"}]`},
		{name: "timestamp with offset", text: `[{"embedding":"AACAPw==","capturedAt":"2026-02-14T10:30:00+01:00"}]`},
		{name: "unparseable timestamp", text: `[{"embedding":"AACAPw==","capturedAt":"yesterday"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := utc.Decode(tt.text)
			assert.ErrorIs(t, err, biometric.ErrFormat)
			assert.Nil(t, samples)
		})
	}
}

func TestPackageLevelDefault(t *testing.T) {
	samples := []biometric.Sample{{Vector: []float32{3, 4}, CapturedAt: time.Now().Round(0)}}

	text, err := Encode(samples)
	require.NoError(t, err)

	decoded, err := Decode(text)
	require.NoError(t, err)
	assertBitExact(t, samples, decoded)
}
