package repl

import (
	"strings"

	"github.com/lmorg/readline"

	"github.com/martin-dore/dace/source/hub"
	"github.com/martin-dore/dace/source/text"
)

func Start(hub *hub.Hub) {
	rline := readline.NewInstance()
	for {
		rline.SetPrompt(text.PROMPT)
		line, _ := rline.Readline()
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if hub.Do(line) {
			break
		}
	}
}
