package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mlevasseur/lessonplan-cli/internal/ports"
)

// ErrUnavailable reports that pass is not installed. The chain store treats
// it like any other failure and falls through to the file store.
var ErrUnavailable = errors.New("pass command unavailable")

const passBinary = "pass"

type passRunner func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

// Store keeps the session credential in the pass(1) password store, one
// entry per key.
type Store struct {
	run passRunner
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: invokePass}
}

// Put overwrites any existing entry. -m keeps pass from reading the value as
// an interactive prompt.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, stderr, err := s.run(ctx, value+"\n", "insert", "-m", "-f", key); err != nil {
		return passError("put", key, err, stderr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", key)
	if err != nil {
		return "", passError("get", key, err, stderr)
	}

	// pass show prints the stored value followed by a newline.
	return strings.TrimRight(stdout, "\r\n"), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, stderr, err := s.run(ctx, "", "rm", "-f", key); err != nil {
		return passError("delete", key, err, stderr)
	}
	return nil
}

func invokePass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	path, err := exec.LookPath(passBinary)
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	runErr := cmd.Run()
	return out.String(), strings.TrimSpace(errOut.String()), runErr
}

func passError(op string, key string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}
	return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
}
