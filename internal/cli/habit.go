package cli

import (
	"context"
	"fmt"

	"github.com/controla/internal/tracker"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Done   HabitDoneCmd   `cmd:"" help:"Mark a habit as done today."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit permanently."`
}

type HabitAddCmd struct {
	Name string `arg:"" help:"Habit name."`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	habit, err := ctx.App.Habits.Create(context.Background(), sess, c.Name)
	if err != nil {
		return err
	}

	ctx.printf("%s %s %s\n", successStyle.Render("Added habit"), nameStyle.Render(habit.Name), dimStyle.Render(fmt.Sprintf("#%d", habit.ID)))
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	habits, err := ctx.App.Habits.List(context.Background(), sess)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		ctx.printf("%s\n", dimStyle.Render("No habits yet."))
		return nil
	}

	for _, habit := range habits {
		last := habit.LastDoneDate
		if last == "" {
			last = "never"
		}
		ctx.printf("%s %s  streak %d  total %d  %s\n",
			dimStyle.Render(fmt.Sprintf("#%d", habit.ID)),
			nameStyle.Render(habit.Name),
			habit.Streak,
			habit.TotalDone,
			dimStyle.Render("last "+last),
		)
	}
	return nil
}

type HabitDoneCmd struct {
	ID int64 `arg:"" help:"Habit id."`
}

func (c *HabitDoneCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	outcome, habit, err := ctx.App.Habits.Complete(context.Background(), sess, c.ID)
	if err != nil {
		return err
	}

	switch outcome {
	case tracker.NotFound:
		return fmt.Errorf("habit #%d not found", c.ID)
	case tracker.AlreadyDone:
		ctx.printf("%s %s\n", dimStyle.Render("Already done today:"), nameStyle.Render(habit.Name))
	default:
		ctx.printf("%s %s  streak %d  total %d\n", successStyle.Render("Done:"), nameStyle.Render(habit.Name), habit.Streak, habit.TotalDone)
	}
	return nil
}

type HabitDeleteCmd struct {
	ID int64 `arg:"" help:"Habit id."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	if err := ctx.App.Habits.Delete(context.Background(), sess, c.ID); err != nil {
		return err
	}

	ctx.printf("%s %s\n", successStyle.Render("Deleted habit"), dimStyle.Render(fmt.Sprintf("#%d", c.ID)))
	return nil
}
