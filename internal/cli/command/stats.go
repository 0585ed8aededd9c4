package command

import "github.com/urfave/cli/v2"

// StatsCommand returns the stats command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show item count, cipher and backend statistics",
		Action: withSession(showStats),
	}
}

func showStats(c *cli.Context, s *session) error {
	st, err := s.store.Stats(s.ctx)
	if err != nil {
		return err
	}
	return s.out.Format(s.stdout, st)
}
