package transcription

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Canonical audio format expected by the engines.
const (
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	CanonicalBitDepth   = 16

	wavFormatPCM = 1
)

// WAVInfo describes a WAV file header.
type WAVInfo struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Format     int     `json:"format"`
	DataBytes  int     `json:"data_bytes"`
	Duration   float64 `json:"duration"`
	SizeBytes  int64   `json:"size_bytes"`
}

// IsCanonical reports mono, 16 kHz, 16-bit linear PCM.
func (w WAVInfo) IsCanonical() bool {
	return w.SampleRate == CanonicalSampleRate && w.Channels == CanonicalChannels &&
		w.BitDepth == CanonicalBitDepth && w.Format == wavFormatPCM
}

// ProbeWAV reads the header and data chunk size of the WAV file at path.
func ProbeWAV(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	d := wav.NewDecoder(f)
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("transcription: read wav %s: %w", path, err)
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("transcription: read wav %s: %w", path, err)
	}
	if d.SampleRate == 0 || d.NumChans == 0 || d.BitDepth == 0 {
		return nil, fmt.Errorf("transcription: %s is not a valid wav file", path)
	}

	info := &WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Format:     int(d.WavAudioFormat),
		DataBytes:  d.PCMSize,
		SizeBytes:  st.Size(),
	}
	bytesPerSec := info.SampleRate * info.Channels * info.BitDepth / 8
	info.Duration = float64(info.DataBytes) / float64(bytesPerSec)
	return info, nil
}

// WritePCM16 writes mono 16-bit PCM samples as a WAV file.
func WritePCM16(path string, sampleRate int, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, sampleRate, CanonicalBitDepth, CanonicalChannels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: CanonicalChannels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: CanonicalBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("transcription: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("transcription: finalize wav: %w", err)
	}
	return f.Close()
}
