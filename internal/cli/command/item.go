package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/persist-securestore/internal/cli/output"
)

// itemResult is the structured output of item commands.
type itemResult struct {
	Key         string  `json:"key" yaml:"key"`
	ResolvedKey string  `json:"resolved_key" yaml:"resolved_key"`
	Value       *string `json:"value,omitempty" yaml:"value,omitempty"`
	Found       bool    `json:"found" yaml:"found"`
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the value stored under KEY",
		ArgsUsage: "KEY",
		Action:    withSession(itemGet),
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store VALUE under KEY",
		ArgsUsage: "KEY [VALUE]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "Read the value from standard input",
			},
		},
		Action: withSession(itemSet),
	}
}

// RemoveCommand returns the remove command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Delete KEY; deleting a missing key succeeds",
		ArgsUsage: "KEY",
		Action:    withSession(itemRemove),
	}
}

func itemGet(c *cli.Context, s *session) error {
	key, err := requireArgs(c, 1, 1)
	if err != nil {
		return err
	}

	value, err := s.adapter.GetItem(s.ctx, key[0]).Wait(s.ctx)
	if err != nil {
		return err
	}

	res := itemResult{Key: key[0], ResolvedKey: s.adapter.ResolveKey(key[0]), Value: value, Found: value != nil}
	if s.format != output.FormatTable {
		return s.out.Format(s.stdout, res)
	}
	if value == nil {
		return fmt.Errorf("key %q not found", key[0])
	}
	_, err = fmt.Fprintln(s.stdout, *value)
	return err
}

func itemSet(c *cli.Context, s *session) error {
	args, err := requireArgs(c, 1, 2)
	if err != nil {
		return err
	}

	var value string
	switch {
	case c.Bool("stdin"):
		if len(args) == 2 {
			return fmt.Errorf("set: VALUE and --stdin are mutually exclusive")
		}
		if value, err = readValue(c.App.Reader); err != nil {
			return err
		}
	case len(args) == 2:
		value = args[1]
	default:
		return fmt.Errorf("set: VALUE or --stdin is required")
	}

	if _, err := s.adapter.SetItem(s.ctx, args[0], value).Wait(s.ctx); err != nil {
		return err
	}
	return s.report(itemResult{Key: args[0], ResolvedKey: s.adapter.ResolveKey(args[0]), Found: true})
}

func itemRemove(c *cli.Context, s *session) error {
	args, err := requireArgs(c, 1, 1)
	if err != nil {
		return err
	}

	if _, err := s.adapter.RemoveItem(s.ctx, args[0]).Wait(s.ctx); err != nil {
		return err
	}
	return s.report(itemResult{Key: args[0], ResolvedKey: s.adapter.ResolveKey(args[0])})
}

// report prints structured results; table output stays quiet on success.
func (s *session) report(data any) error {
	if s.format == output.FormatTable {
		return nil
	}
	return s.out.Format(s.stdout, data)
}

// readValue reads a value from r, dropping one trailing newline.
func readValue(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("set: no standard input")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	v := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(v, "\r"), nil
}

func requireArgs(c *cli.Context, min, max int) ([]string, error) {
	args := c.Args().Slice()
	if len(args) < min || len(args) > max {
		return nil, fmt.Errorf("%s: usage: %s %s", c.Command.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return args, nil
}
