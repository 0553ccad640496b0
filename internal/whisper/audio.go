package whisper

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// silenceFloor is the peak amplitude (normalized to 0..1) below which an
// extracted track is reported as silent. Roughly -60 dBFS.
const silenceFloor = 0.001

// ExtractAudio uses FFmpeg to extract audio as WAV 16kHz mono (the input
// format every engine accepts). The caller removes the returned temp file.
func ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	tmpFile, err := os.CreateTemp("", "hardsub-audio-*.wav")
	if err != nil {
		return "", err
	}
	tmpFile.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn", // no video
		"-acodec", "pcm_s16le",
		"-ar", "16000", // 16kHz
		"-ac", "1", // mono
		"-y", // overwrite
		tmpFile.Name(),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("ffmpeg: %s: %w", string(output), err)
	}

	return tmpFile.Name(), nil
}

// audioPeak decodes a WAV file and returns its largest absolute sample value
// normalized to 0..1. Used to warn about silent tracks before a long
// transcription run burns minutes on nothing.
func audioPeak(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("not a valid wav file: %s", path)
	}

	scale := float64(int(1) << (dec.BitDepth - 1))
	if scale <= 0 {
		return 0, fmt.Errorf("unsupported bit depth %d", dec.BitDepth)
	}

	buf := &audio.IntBuffer{Data: make([]int, 8192), Format: dec.Format()}
	peak := 0.0
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("decode wav: %w", err)
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			v := float64(s) / scale
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
	}
	return peak, nil
}
