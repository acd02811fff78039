// domfront computes dominators, immediate dominators and dominance
// frontiers of control flow graphs.
package main // import "honnef.co/go/domfront/cmd/domfront"

import (
	"errors"
	"flag"
	"os"

	"honnef.co/go/domfront/domcmd"
)

func main() {
	cmd := domcmd.NewCommand("domfront")
	if err := cmd.ParseFlags(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	os.Exit(cmd.Run())
}
