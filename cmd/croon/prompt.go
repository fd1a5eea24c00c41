package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdinPrompter reads one-time codes from standard input. It is the CLI's
// implementation of the pool.Prompter contract; the authentication flow
// itself owns no terminal I/O.
type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinPrompter() *stdinPrompter {
	return &stdinPrompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stderr,
	}
}

func (p *stdinPrompter) Code(ctx context.Context, phone string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "Enter the code sent to %s: ", phone)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read code: %w", err)
	}
	return strings.TrimSpace(line), nil
}
