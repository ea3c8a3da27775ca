package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono PCM-16 samples from one sample rate to another
// using a pure Go resampler (no CGO dependencies). If the rates match,
// the input slice is returned unchanged.
func Resample(samples []int16, fromRate, toRate int) ([]int16, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive, got %d -> %d", fromRate, toRate)
	}

	if fromRate == toRate {
		return samples, nil
	}

	config := &resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	// Normalize to float64 in [-1, 1] for processing.
	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s) / 32768.0
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	result := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s > 1.0:
			result[i] = 32767
		case s < -1.0:
			result[i] = -32768
		default:
			result[i] = int16(s * 32767.0)
		}
	}

	return result, nil
}
