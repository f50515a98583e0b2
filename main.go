//
// Dace version 0.1.2
//

package main

import (
	"fmt"
	"os"

	"github.com/martin-dore/dace/source/hub"
	"github.com/martin-dore/dace/source/repl"
	"github.com/martin-dore/dace/source/text"
)

func main() {

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println("dace " + text.VERSION)
			return
		case "-h", "--help":
			fmt.Print(text.HELP)
			return
		}
	}

	fmt.Print(text.Logo())

	hb := hub.New(os.Stdin, os.Stdout)
	repl.Start(hb)
}
