package cli

import "context"

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	stats, err := ctx.App.Stats.Get(context.Background(), sess)
	if err != nil {
		return err
	}

	ctx.printf("%s\n", nameStyle.Render("Stats for "+sessionLabel(sess)))
	ctx.printf("  habits       %d\n", stats.TotalHabits)
	ctx.printf("  completions  %d\n", stats.TotalDone)
	ctx.printf("  best streak  %d\n", stats.BestStreak)
	ctx.printf("  reminders    %d\n", stats.TotalReminders)
	return nil
}
