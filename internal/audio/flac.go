package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacBlockSize is the number of samples encoded per FLAC frame.
const flacBlockSize = 4096

// EncodeFLAC encodes mono PCM-16 samples into a FLAC stream, entirely in
// memory. FLAC is the active storage format for ingested audio; verbatim
// subframes keep the encoding lossless.
func EncodeFLAC(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      uint64(len(samples)),
	}

	var buf bytes.Buffer
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC encoder: %w", err)
	}

	for off := 0; off < len(samples); off += flacBlockSize {
		end := off + flacBlockSize
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[off:end]

		sub := &frame.Subframe{
			SubHeader: frame.SubHeader{
				Pred: frame.PredVerbatim,
			},
			NSamples: len(block),
			Samples:  make([]int32, len(block)),
		}
		for i, s := range block {
			sub.Samples[i] = int32(s)
		}

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(len(block)),
				SampleRate:        uint32(sampleRate),
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
				Num:               uint64(off),
			},
			Subframes: []*frame.Subframe{sub},
		}

		if err := enc.WriteFrame(f); err != nil {
			return nil, fmt.Errorf("failed to write FLAC frame: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize FLAC stream: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeFLAC decodes a mono FLAC stream back to PCM-16 samples.
// It returns the samples and the sample rate.
func DecodeFLAC(data []byte) ([]int16, int, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse FLAC stream: %w", err)
	}
	defer stream.Close()

	if stream.Info.NChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", stream.Info.NChannels)
	}

	if stream.Info.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", stream.Info.BitsPerSample)
	}

	sampleRate := int(stream.Info.SampleRate)
	samples := make([]int16, 0, stream.Info.NSamples)

	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}
		sub := f.Subframes[0]
		for i := 0; i < int(f.Header.BlockSize); i++ {
			samples = append(samples, int16(sub.Samples[i]))
		}
	}

	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}

	return samples, sampleRate, nil
}
