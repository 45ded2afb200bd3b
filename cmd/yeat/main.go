package main

import (
	"fmt"
	"os"

	"github.com/bioforensics/yeat/internal/yeat/cli"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := yerrors.GetUserMessage(err); hint != "" {
			_, _ = fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(yerrors.GetExitCode(err))
	}
}
