package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of record timestamps: ISO-8601,
// UTC, Z-suffixed, with microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Record is the atomic unit of the dataset: one ingested voice sample
// plus its metadata, persisted as a flat JSON sidecar next to the audio
// blob. The audio field holds a store-relative path string until the
// materialization cast step reinterprets it.
type Record struct {
	ID         string `json:"id"`
	Audio      string `json:"audio"`
	Transcript string `json:"transcript"`
	SpeakerID  string `json:"speaker_id"`
	Language   string `json:"language"`
	Timestamp  string `json:"timestamp"`
}

// NewRecord builds a Record with the creation timestamp set to now.
// The id and audio reference are assigned by the caller; the timestamp
// is set exactly once and never mutated afterwards.
func NewRecord(id, audioRef, transcript, speakerID, language string) *Record {
	return &Record{
		ID:         id,
		Audio:      audioRef,
		Transcript: transcript,
		SpeakerID:  speakerID,
		Language:   language,
		Timestamp:  time.Now().UTC().Format(TimestampLayout),
	}
}

// EncodeJSON serializes the record as UTF-8 JSON. Non-ASCII characters
// (transcripts are frequently not English) are preserved verbatim rather
// than escaped.
func (r *Record) EncodeJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", r.ID, err)
	}
	// json.Encoder appends a trailing newline; the sidecar is a single object.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeRecord parses a JSON sidecar back into a Record.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	if r.ID == "" {
		return nil, fmt.Errorf("record has no id")
	}
	return &r, nil
}

// ParseTimestamp parses the record's creation timestamp.
func (r *Record) ParseTimestamp() (time.Time, error) {
	t, err := time.Parse(TimestampLayout, r.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("record %s: invalid timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return t, nil
}
