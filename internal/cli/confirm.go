package cli

import (
	"strings"

	"github.com/chzyer/readline"
)

// promptConfirm asks a yes/no question on the terminal. Interrupt and EOF mean no.
func promptConfirm(question string) (bool, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          question + " [y/N] ",
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	})
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if err != nil {
		return false, nil
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
