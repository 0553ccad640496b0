package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hardsub/hardsub/internal/ffmpeg"
)

func newBurnCommand(configFlag *string) *cobra.Command {
	var (
		outputPath string
		style      = ffmpeg.DefaultStyle()
		noHWAccel  bool
	)

	cmd := &cobra.Command{
		Use:   "burn <video> <subtitles>",
		Short: "Render a subtitle file into the video picture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Skipping detection leaves the burn on libx264.
			if !noHWAccel && !cfg.DisableHWAccel {
				ffmpeg.DetectHardware()
			}

			var onProgress func(string)
			if shouldEchoProgress(os.Stderr) {
				onProgress = func(line string) {
					fmt.Fprintln(os.Stderr, line)
				}
			}

			out, err := ffmpeg.Burn(ctx, ffmpeg.BurnRequest{
				VideoPath:    args[0],
				SubtitlePath: args[1],
				OutputPath:   outputPath,
				Style:        style,
			}, onProgress)
			if err != nil {
				return err
			}

			fmt.Println(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output video path (default: beside the input)")
	cmd.Flags().IntVar(&style.FontSize, "font-size", style.FontSize, "caption font size")
	cmd.Flags().StringVar(&style.FontName, "font-name", style.FontName, "caption font name")
	cmd.Flags().StringVar(&style.TextColor, "text-color", style.TextColor, "text color as RRGGBB hex")
	cmd.Flags().StringVar(&style.OutlineColor, "outline-color", style.OutlineColor, "outline color as RRGGBB hex")
	cmd.Flags().IntVar(&style.Outline, "outline", style.Outline, "outline width in pixels")
	cmd.Flags().IntVar(&style.Alignment, "alignment", style.Alignment, "numpad-style alignment code")
	cmd.Flags().IntVar(&style.MarginV, "margin-v", style.MarginV, "vertical margin in pixels")
	cmd.Flags().BoolVar(&noHWAccel, "no-hwaccel", false, "force software encoding")

	return cmd
}

// shouldEchoProgress reports whether ffmpeg progress lines should be echoed,
// which is only useful when the stream is an interactive terminal.
func shouldEchoProgress(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
