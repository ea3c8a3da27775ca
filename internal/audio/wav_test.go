package audio

import (
	"math"
	"testing"
)

// sineWave generates a test tone at the given frequency and duration.
func sineWave(sampleRate int, duration, frequency float64) []int16 {
	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)

	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(sampleRate)
		amplitude := 16383.0 // Half of max int16 to avoid clipping
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*frequency*t))
	}

	return samples
}

func TestEncodeWAV(t *testing.T) {
	sampleRate := 16000
	samples := sineWave(sampleRate, 0.1, 440.0)

	wavData, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// WAV header is 44 bytes, 2 bytes per sample
	expectedSize := 44 + len(samples)*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	duration, err := WAVDuration(wavData)
	if err != nil {
		t.Fatalf("WAVDuration failed: %v", err)
	}

	expectedDuration := float64(len(samples)) / float64(sampleRate)
	if math.Abs(duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, duration)
	}
}

func TestDecodeWAV(t *testing.T) {
	originalSamples := []int16{100, -200, 300, -400, 500}
	sampleRate := 16000

	wavData, err := EncodeWAV(originalSamples, sampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decodedSamples, decodedSampleRate, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if decodedSampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedSampleRate)
	}

	if len(decodedSamples) != len(originalSamples) {
		t.Fatalf("Expected %d samples, got %d", len(originalSamples), len(decodedSamples))
	}

	for i, original := range originalSamples {
		if decodedSamples[i] != original {
			t.Errorf("Sample %d: expected %d, got %d", i, original, decodedSamples[i])
		}
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	_, err := EncodeWAV([]int16{}, 16000)
	if err == nil {
		t.Error("Expected error for empty samples")
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	_, err := EncodeWAV([]int16{100, 200, 300}, 0)
	if err == nil {
		t.Error("Expected error for invalid sample rate")
	}
}

func TestDecodeWAVTruncated(t *testing.T) {
	_, _, err := DecodeWAV([]byte("RIFF"))
	if err == nil {
		t.Error("Expected error for truncated WAV data")
	}
}

func TestDecodeWAVInvalidHeader(t *testing.T) {
	data := make([]byte, 64)
	copy(data, "NOPE")

	_, _, err := DecodeWAV(data)
	if err == nil {
		t.Error("Expected error for invalid WAV header")
	}
}
