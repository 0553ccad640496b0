package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hardsub/hardsub/internal/subtitle"
	"github.com/hardsub/hardsub/internal/whisper"
)

func newTranscribeCommand(configFlag *string) *cobra.Command {
	var (
		outputPath string
		model      string
		maxWords   int
		language   string
		engine     string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Transcribe a video's speech into an SRT subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc := whisper.NewService(whisper.Options{
				DefaultEngine: cfg.Engine,
				PythonBin:     cfg.PythonBin,
				WhisperCppURL: cfg.WhisperCppURL,
				OpenAIKey:     cfg.OpenAIKey,
			})
			if engine == "" {
				engine = svc.DefaultEngine()
			}
			if model == "" {
				model = cfg.Model
			}

			videoPath := args[0]
			fmt.Printf("Transcribing: %s\n", videoPath)
			fmt.Printf("Model: %s\n", model)

			srtPath, err := subtitle.Generate(ctx, svc, subtitle.GenerateRequest{
				VideoPath:  videoPath,
				OutputPath: outputPath,
				Engine:     engine,
				Model:      model,
				Language:   language,
				MaxWords:   maxWords,
			}, subtitle.GenerateEvents{
				OnInfo: func(info whisper.Info) {
					fmt.Printf("Detected language: %s (probability %.2f)\n", info.Language, info.Probability)
				},
				OnCue: func(cue subtitle.Cue) {
					fmt.Printf("[%s] %s\n", subtitle.FormatTimestamp(cue.End), cue.Text)
				},
			})
			if err != nil {
				return err
			}

			fmt.Printf("Done: %s\n", srtPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output SRT path (default: beside the video)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Whisper model size (overrides config)")
	cmd.Flags().IntVarP(&maxWords, "max-words", "w", 0, "maximum words per caption, 0 keeps whole segments")
	cmd.Flags().StringVar(&language, "language", "", "spoken language hint, e.g. en")
	cmd.Flags().StringVar(&engine, "engine", "", "transcription engine (overrides config)")

	return cmd
}
