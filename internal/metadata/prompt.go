package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// confirm asks a yes/no question until the answer is recognizable.
func confirm(p Prompter, question string, def bool) (bool, error) {
	d := "n"
	if def {
		d = "y"
	}
	for {
		answer, err := p.Ask(question, d)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.Show(fmt.Sprintf("Please answer yes or no, not %q", answer))
	}
}

// askInt asks for an integer until one is given. An empty answer is def.
func askInt(p Prompter, question string, def int) (int, error) {
	for {
		answer, err := p.Ask(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			return n, nil
		}
		p.Show(fmt.Sprintf("%q is not a number", answer))
	}
}

// askString returns the trimmed answer, or def when the answer is empty.
func askString(p Prompter, question, def string) (string, error) {
	answer, err := p.Ask(question, def)
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}
