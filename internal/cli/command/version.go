package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/persist-securestore/internal/cli/output"
	"github.com/yndnr/persist-securestore/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			w := writerOr(c.App.Writer, os.Stdout)
			format, err := output.ParseFormat(c.String("output"))
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				_, err := fmt.Fprintf(w, "securestore-cli %s\n", buildinfo.String())
				return err
			}
			return output.NewFormatter(format).Format(w, buildinfo.Get())
		},
	}
}
