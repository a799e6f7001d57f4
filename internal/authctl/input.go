package authctl

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/okulikov/authd/internal/common"
)

// minPasswordLength mirrors the policy of the public signup surface.
const minPasswordLength = 8

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// promptNewPassword asks for a password twice without echo and returns it
// once both entries match and pass the length floor.
func promptNewPassword(w io.Writer) ([]byte, error) {
	password, err := promptPassword(w, "Enter password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := promptPassword(w, "Confirm password: ")
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(password, confirm) {
		return nil, fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidInput, minPasswordLength)
	}
	return password, nil
}

func promptPassword(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
