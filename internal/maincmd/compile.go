package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/luacode/lang/bytecode"
	"github.com/mna/luacode/lang/parser"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(stdio, c.cfg.Strict, c.cfg.MaxConstants, args...)
}

// CompileFiles parses and compiles each file, writing the resulting
// Prototype's bytecode dump to stdout. If strict, processing stops at the
// first file that fails instead of continuing on to the next one.
func CompileFiles(stdio mainer.Stdio, strict bool, maxConstants int, files ...string) error {
	var failed error
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = err
			if strict {
				return failed
			}
			continue
		}

		proto, err := parser.Compile(file, src)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = err
			if strict {
				return failed
			}
			continue
		}
		if maxConstants > 0 && len(proto.Constants) > maxConstants {
			err := fmt.Errorf("%s: constant pool of %d entries exceeds the %d limit", file, len(proto.Constants), maxConstants)
			fmt.Fprintln(stdio.Stderr, err)
			failed = err
			if strict {
				return failed
			}
			continue
		}

		if err := bytecode.Dump(stdio.Stdout, proto); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			failed = err
			if strict {
				return failed
			}
		}
	}
	return failed
}
