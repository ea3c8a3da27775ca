package audio

import (
	"testing"
)

func TestFLACRoundTrip(t *testing.T) {
	sampleRate := 16000
	samples := sineWave(sampleRate, 2.0, 440.0)

	flacData, err := EncodeFLAC(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeFLAC failed: %v", err)
	}

	if len(flacData) == 0 {
		t.Fatal("FLAC data is empty")
	}

	decoded, decodedRate, err := DecodeFLAC(flacData)
	if err != nil {
		t.Fatalf("DecodeFLAC failed: %v", err)
	}

	if decodedRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedRate)
	}

	// Verbatim subframes are lossless, so the round trip must be exact.
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, original := range samples {
		if decoded[i] != original {
			t.Fatalf("Sample %d: expected %d, got %d", i, original, decoded[i])
		}
	}
}

func TestFLACRoundTripShort(t *testing.T) {
	// Fewer samples than one FLAC block
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}
	sampleRate := 8000

	flacData, err := EncodeFLAC(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeFLAC failed: %v", err)
	}

	decoded, decodedRate, err := DecodeFLAC(flacData)
	if err != nil {
		t.Fatalf("DecodeFLAC failed: %v", err)
	}

	if decodedRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedRate)
	}

	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}

	for i, original := range samples {
		if decoded[i] != original {
			t.Errorf("Sample %d: expected %d, got %d", i, original, decoded[i])
		}
	}
}

func TestEncodeFLACEmpty(t *testing.T) {
	_, err := EncodeFLAC([]int16{}, 16000)
	if err == nil {
		t.Error("Expected error for empty samples")
	}
}

func TestEncodeFLACInvalidSampleRate(t *testing.T) {
	_, err := EncodeFLAC([]int16{100, 200}, -1)
	if err == nil {
		t.Error("Expected error for invalid sample rate")
	}
}

func TestDecodeFLACGarbage(t *testing.T) {
	_, _, err := DecodeFLAC([]byte("not a flac stream"))
	if err == nil {
		t.Error("Expected error for invalid FLAC data")
	}
}
