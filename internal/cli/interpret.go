package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flightpath-labs/notam-interp/internal/domain"
	"github.com/flightpath-labs/notam-interp/internal/observability"
	"github.com/flightpath-labs/notam-interp/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "interpret [notam text]",
		Short: "Interpret a NOTAM",
		Long:  "Run the deterministic extractor against a NOTAM. Text can be a positional arg or piped via stdin.",
		Run:   runInterpret,
	}

	cmd.Flags().String("candidate", "", "JSON external candidate {text, segments, source} to soft-merge against")

	RootCmd.AddCommand(cmd)
}

func runInterpret(cmd *cobra.Command, args []string) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}
	if strings.TrimSpace(text) == "" {
		exitErr("interpret", fmt.Errorf("notam text is required (positional arg or stdin)"))
	}

	var candidate domain.Candidate
	if raw, _ := cmd.Flags().GetString("candidate"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &candidate); err != nil {
			exitErr("parse candidate", err)
		}
	}

	store := openStore()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	interp := pipeline.NewInterpreter(store, store, logger, observability.NewMetricsForTesting())

	result := interp.Interpret(text, candidate)
	printInterpretation(result)
}

func printInterpretation(result pipeline.Interpretation) {
	if formatFlag == "text" {
		fmt.Printf("source: %s  confidence: %.3f\n", result.Source, result.Confidence)
		if result.Band != nil {
			fmt.Printf("band: %s\n", result.Band)
		}
		for _, s := range result.Segments {
			fmt.Printf("%s %s %s\n", s.Route, s.Segment, s.FL)
		}
		if len(result.Segments) == 0 {
			fmt.Println(result.Text)
		}
		return
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		exitErr("encode result", err)
	}
	fmt.Println(string(out))
}
