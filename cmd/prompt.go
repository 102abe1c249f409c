package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// errNoTerminal is returned when a confirmation is needed but stdin is not
// interactive and --yes was not given.
var errNoTerminal = errors.New("confirmation required: stdin is not a terminal, pass --yes to confirm")

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm prompts for the exact word. --yes skips the prompt.
func confirm(word, question string) (bool, error) {
	if assumeYes {
		fmt.Fprintln(os.Stderr, "✓ Auto-confirmed via --yes flag")
		return true, nil
	}
	if !isTerminal(os.Stdin) {
		return false, errNoTerminal
	}
	return ask(os.Stdin, os.Stderr, word, question)
}

func ask(in io.Reader, out io.Writer, word, question string) (bool, error) {
	fmt.Fprintf(out, "\n⚠️  %s Type '%s' to confirm: ", question, word)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(response) == word, nil
}
