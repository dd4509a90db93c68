// Package codec converts enrolled face samples to and from the text blob kept
// in the profile store.
//
// The blob is a JSON array of objects:
//
//	[{"embedding":"<base64>","capturedAt":"2026-02-14T10:30:00"}, ...]
//
// where embedding is the standard base64 encoding of the descriptor as
// little-endian IEEE-754 float32 values (4 bytes per component) and
// capturedAt is an ISO-8601 local date-time without offset.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

const (
	timestampLayout       = "2006-01-02T15:04:05.999999999"
	minuteTimestampLayout = "2006-01-02T15:04"
	bytesPerComponent     = 4
)

type record struct {
	Embedding  *string `json:"embedding"`
	CapturedAt *string `json:"capturedAt"`
}

// Codec encodes samples with timestamps rendered in Location.
type Codec struct {
	Location *time.Location
}

// Default renders timestamps in the machine's local time zone.
var Default = Codec{Location: time.Local}

// Encode serializes samples with the Default codec.
func Encode(samples []biometric.Sample) (string, error) {
	return Default.Encode(samples)
}

// Decode parses a blob with the Default codec.
func Decode(text string) ([]biometric.Sample, error) {
	return Default.Decode(text)
}

// Encode returns the blob for samples, or an empty string when there is
// nothing to store.
func (c Codec) Encode(samples []biometric.Sample) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	records := make([]record, 0, len(samples))
	for i, s := range samples {
		if len(s.Vector) == 0 {
			return "", fmt.Errorf("%w: sample %d has an empty embedding", biometric.ErrFormat, i)
		}
		embedding := encodeVector(s.Vector)
		capturedAt := s.CapturedAt.In(c.location()).Format(timestampLayout)
		records = append(records, record{Embedding: &embedding, CapturedAt: &capturedAt})
	}

	out, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal embeddings: %w", err)
	}
	return string(out), nil
}

// Decode parses a blob produced by Encode. Blank input, "null" and "[]" all
// mean no enrollment and yield an empty slice. Any malformed content yields
// an error wrapping biometric.ErrFormat.
func (c Codec) Decode(text string) ([]biometric.Sample, error) {
	if strings.TrimSpace(text) == "" {
		return []biometric.Sample{}, nil
	}

	var records []record
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", biometric.ErrFormat, err)
	}

	samples := make([]biometric.Sample, 0, len(records))
	for i, r := range records {
		if r.Embedding == nil || r.CapturedAt == nil {
			return nil, fmt.Errorf("%w: entry %d is missing a field", biometric.ErrFormat, i)
		}

		vector, err := decodeVector(*r.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", biometric.ErrFormat, i, err)
		}

		capturedAt, err := c.parseTimestamp(*r.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", biometric.ErrFormat, i, err)
		}

		samples = append(samples, biometric.Sample{Vector: vector, CapturedAt: capturedAt})
	}

	return samples, nil
}

func (c Codec) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Codec) parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, c.location())
	if err == nil {
		return t, nil
	}
	if t, minuteErr := time.ParseInLocation(minuteTimestampLayout, s, c.location()); minuteErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid capturedAt %q", s)
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*bytesPerComponent)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*bytesPerComponent:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeVector(s string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 embedding: %v", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	if len(buf)%bytesPerComponent != 0 {
		return nil, fmt.Errorf("embedding is %d bytes, not a multiple of %d", len(buf), bytesPerComponent)
	}

	v := make([]float32, len(buf)/bytesPerComponent)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*bytesPerComponent:]))
	}
	return v, nil
}
