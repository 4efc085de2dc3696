package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

type ShellCommand struct {
	VI bool `help:"Enable VI mode."`
}

func (c *ShellCommand) Run(e *env) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.WithStack(err)
	}

	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            filepath.Join(home, ".colload.history"),
		DisableAutoSaveHistory: true,
		VimMode:                c.VI,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_ = rl.Close()
	}()
	for {
		// Gather multi-line statement terminated by a ;
		rl.SetPrompt("colload> ")
		cmd := []string{}
		for {
			line, err := rl.Readline()
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			if err != nil {
				return errors.WithStack(err)
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			cmd = append(cmd, line)
			if strings.HasSuffix(line, ";") {
				break
			}
			rl.SetPrompt("         ")
		}
		statement := strings.Join(cmd, " ")
		_ = rl.SaveHistory(statement)

		if err := executeStatement(e, statement); err != nil {
			fmt.Fprintln(e.out, userError(err).Error())
		}
	}
}

// userError keeps errors meant for users and replaces anything else with a logged internal error.
func userError(err error) error {
	var cerr errors.ColloadError
	if errors.As(err, &cerr) {
		return err
	}
	return common.LogInternalError(err)
}

// executeStatement runs DDL, or prints a table for "SCAN [schema.]table [LIMIT n];".
func executeStatement(e *env, statement string) error {
	fields := strings.Fields(strings.TrimSuffix(statement, ";"))
	if len(fields) == 0 || !strings.EqualFold(fields[0], "scan") {
		return e.store.Exec(statement)
	}
	limit := -1
	switch {
	case len(fields) == 2:
	case len(fields) == 4 && strings.EqualFold(fields[2], "limit"):
		if _, err := fmt.Sscanf(fields[3], "%d", &limit); err != nil {
			return errors.NewInvalidStatementError(fmt.Sprintf("invalid limit %s", fields[3]))
		}
	default:
		return errors.NewInvalidStatementError("expected SCAN [schema.]table [LIMIT n]")
	}
	return scanTable(e, fields[1], limit, false)
}
