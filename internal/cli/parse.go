package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"paradestate/internal/parser"
)

var parseJSON bool

func init() {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a status message and print the extraction",
		Long:  "Parse a status message from a file (or stdin) without touching the roster.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runParse,
	}
	cmd.Flags().BoolVar(&parseJSON, "json", false, "以 JSON 输出完整解析结果")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		exitErr("read message", err)
	}

	ext, err := parser.NewMessageParser().Parse(string(data))
	if err != nil && !errors.Is(err, parser.ErrNoStatusLine) {
		exitErr("parse", err)
	}
	out := cmd.OutOrStdout()
	if parseJSON {
		b, _ := json.MarshalIndent(ext, "", "  ")
		fmt.Fprintln(out, string(b))
		return
	}
	if errors.Is(err, parser.ErrNoStatusLine) {
		fmt.Fprintln(out, "⚠ No status line found.")
	}
	fmt.Fprintln(out, ext.Summary())
	for _, w := range ext.Warnings {
		fmt.Fprintf(out, "⚠ %s\n", w)
	}
}
