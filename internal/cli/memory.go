package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flightpath-labs/notam-interp/internal/memory"
)

func init() {
	memCmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage the corrective memory",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List memory entries",
		Run:   runMemoryList,
	}

	saveCmd := &cobra.Command{
		Use:   "save [message]",
		Short: "Seed a memory entry",
		Long:  "Append a (message, interpretation) pair directly, bypassing the confidence gate. Use --fix to teach fix corrections.",
		Args:  cobra.ExactArgs(1),
		Run:   runMemorySave,
	}
	saveCmd.Flags().String("text", "", "Interpretation text for the message")
	saveCmd.Flags().StringToString("fix", nil, "Fix correction as bad=good (repeatable)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all memory entries",
		Run:   runMemoryClear,
	}

	memCmd.AddCommand(listCmd, saveCmd, clearCmd)
	RootCmd.AddCommand(memCmd)
}

func runMemoryList(_ *cobra.Command, _ []string) {
	store := openStore()
	entries := store.All()

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Printf("#%d %s\n  %s\n", e.ID, e.Timestamp, e.Message)
			if e.Interpretation.Text != "" {
				fmt.Printf("  -> %s\n", e.Interpretation.Text)
			}
		}
		fmt.Printf("%d entries\n", len(entries))
		return
	}

	out, err := json.MarshalIndent(map[string]any{"entries": entries}, "", "  ")
	if err != nil {
		exitErr("encode entries", err)
	}
	fmt.Println(string(out))
}

func runMemorySave(cmd *cobra.Command, args []string) {
	text, _ := cmd.Flags().GetString("text")
	fixes, _ := cmd.Flags().GetStringToString("fix")

	store := openStore()
	entry, err := store.Append(args[0], memory.Interpretation{
		Text:  text,
		Fixes: fixes,
	})
	if err != nil {
		exitErr("save entry", err)
	}
	fmt.Printf("saved entry #%d\n", entry.ID)
}

func runMemoryClear(_ *cobra.Command, _ []string) {
	store := openStore()
	if err := store.Clear(); err != nil {
		exitErr("clear memory", err)
	}
	fmt.Println("memory cleared")
}
