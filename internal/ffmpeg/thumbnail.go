package ffmpeg

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// GenerateThumbnail extracts a preview frame for the file browser, cached as
// thumb.jpg in outputDir. Seeks to 10% of the duration for a frame that is
// usually past any title card. Uses VAAPI decode when available.
func GenerateThumbnail(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(outputDir, "thumb.jpg")

	if _, err := os.Stat(outputPath); err == nil {
		return outputPath, nil
	}

	seekTime := "5" // fallback: 5 seconds
	if info, err := Probe(ctx, inputPath); err == nil && info.Duration > 0 {
		seekTo := info.Duration * 0.10
		if seekTo < 1 {
			seekTo = 1
		}
		if seekTo > 300 {
			seekTo = 300
		}
		seekTime = fmt.Sprintf("%.2f", seekTo)
	}

	caps := GetCapabilities()
	if caps != nil && caps.CanDecode && caps.Device != "" {
		err := thumbnailVAAPI(ctx, inputPath, outputPath, seekTime, caps.Device)
		if err == nil {
			return outputPath, nil
		}
		log.Printf("[ffmpeg] VAAPI thumbnail decode failed, falling back to CPU: %v", err)
	}

	if err := thumbnailCPU(ctx, inputPath, outputPath, seekTime); err != nil {
		return "", err
	}
	return outputPath, nil
}

func thumbnailVAAPI(ctx context.Context, inputPath, outputPath, seekTime, device string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-hwaccel", "vaapi",
		"-hwaccel_device", device,
		"-hwaccel_output_format", "vaapi",
		"-ss", seekTime,
		"-i", inputPath,
		"-vframes", "1",
		"-vf", "hwdownload,format=nv12,scale=320:-1",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func thumbnailCPU(ctx context.Context, inputPath, outputPath, seekTime string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-ss", seekTime,
		"-i", inputPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
