// Command retailsql serves and queries the retail transaction dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/nao1215/retailsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "retailsql:", err)
		os.Exit(1)
	}
}
