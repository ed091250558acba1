package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/luacode/lang/scanner"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles runs the scanner alone over each file and prints every
// token, one per line, prefixed by its source position.
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	var failed error
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = err
			continue
		}

		toks, scanErr := scanner.ScanAll(file, src)
		for _, tv := range toks {
			fmt.Fprintf(stdio.Stdout, "%s: %s", tv.Value.Pos.At(file), tv.Token)
			if tv.Value.Raw != "" {
				fmt.Fprintf(stdio.Stdout, " %s", tv.Value.Raw)
			}
			fmt.Fprintln(stdio.Stdout)
		}
		if scanErr != nil {
			scanner.PrintError(stdio.Stderr, scanErr)
			failed = scanErr
		}
	}
	return failed
}
