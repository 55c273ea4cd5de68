package commands

import (
	"context"
)

type StatusCmd struct {
	ShowToken bool `help:"Print the full session token"`
}

func (s *StatusCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	printStatus(globals.out(), a.tracker, s.ShowToken)
	return nil
}
