package text

// This consists of a bunch of text utilities to help in generating pretty and meaningful
// help messages, error messages, etc.

import (
	"path/filepath"
	"strings"
)

const (
	VERSION        = "0.1.2"
	BULLET         = "  ▪ "
	BULLET_SPACING = "    " // I.e. whitespace the same width as BULLET.
	GOOD_BULLET    = "\033[32m  ▪ \033[0m"
	BROKEN         = "\033[31m  ✖ \033[0m"
	PROMPT         = "→ "

	RESET  = "\033[0m"
	RED    = "\033[31m"
	GREEN  = "\033[32m"
	YELLOW = "\033[33m"
	CYAN   = "\033[36m"
)

const RT_ERROR = "\033[31mRuntime error\033[0m: "
const WARNING = "\033[33mWarning\033[0m: "

var OK_RESPONSE = Green("OK") + "\n"

func Cyan(s string) string {
	return CYAN + s + RESET
}

func Emph(s string) string {
	return "'" + s + "'"
}

func Red(s string) string {
	return RED + s + RESET
}

func Green(s string) string {
	return GREEN + s + RESET
}

func Yellow(s string) string {
	return YELLOW + s + RESET
}

func ExtractFileName(s string) string {
	if strings.LastIndex(s, ".") >= 0 {
		s = s[:strings.LastIndex(s, ".")]
	}
	if strings.LastIndex(s, "/") >= 0 {
		s = s[strings.LastIndex(s, "/")+1:]
	}
	return s
}

func Trim(s string) string {
	return strings.TrimRight(s, string(filepath.Separator)) + string(filepath.Separator)
}

func Logo() string {
	var padding string
	if len(VERSION)%2 == 1 {
		padding = ","
	}
	titleText := " Dace" + padding + " version " + VERSION + " "
	marker := Cyan("◆")
	leftMargin := "  "
	bar := strings.Repeat("═", len(titleText)/2)
	logoString := "\n" +
		leftMargin + "╔" + bar + marker + bar + "╗\n" +
		leftMargin + "║" + titleText + "║\n" +
		leftMargin + "╚" + bar + marker + bar + "╝\n\n"
	return logoString
}

const HELP = "\nUsage: dace [-v | --version] [-h | --help]\n\n" +
	"With no arguments, dace starts the inspector, an interactive shell\n" +
	"wrapped around one request context. Type 'help' there for the commands.\n\n"
