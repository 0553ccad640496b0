package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hardsub/hardsub/internal/deps"
)

func newDoctorCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that external dependencies are installed and working",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			statuses := deps.CheckAll(cmd.Context(), deps.Options{
				PythonBin:     cfg.PythonBin,
				WhisperCppURL: cfg.WhisperCppURL,
				HaveOpenAIKey: cfg.OpenAIKey != "",
			})

			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				rows = append(rows, []string{
					status.Name,
					doctorState(status),
					status.Detail,
					status.Description,
				})
				if !status.Available && !status.Optional {
					missing++
				}
			}
			fmt.Println(renderTable([]string{"Dependency", "Status", "Detail", "Notes"}, rows))

			if missing > 0 {
				return fmt.Errorf("%d required %s missing", missing, pluralizeDependency(missing))
			}
			return nil
		},
	}
}

func doctorState(status deps.Status) string {
	switch {
	case status.Available:
		return "ok"
	case status.Optional:
		return "missing (optional)"
	default:
		return "MISSING"
	}
}

func pluralizeDependency(n int) string {
	if n == 1 {
		return "dependency is"
	}
	return "dependencies are"
}
