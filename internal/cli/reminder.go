package cli

import (
	"context"
	"fmt"

	"github.com/controla/internal/tracker"
)

type ReminderCmd struct {
	Add    ReminderAddCmd    `cmd:"" help:"Add a reminder."`
	List   ReminderListCmd   `cmd:"" help:"List reminders by due date."`
	Delete ReminderDeleteCmd `cmd:"" help:"Delete a reminder."`
}

type ReminderAddCmd struct {
	Title string `arg:"" help:"Reminder title."`
	Date  string `help:"Due date in YYYY-MM-DD format (default: today)." default:""`
}

func (c *ReminderAddCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	due := c.Date
	if due == "" {
		due = tracker.FormatDate(ctx.App.Habits.Today())
	}

	reminder, err := ctx.App.Reminders.Create(context.Background(), sess, c.Title, due)
	if err != nil {
		return err
	}

	ctx.printf("%s %s %s\n", successStyle.Render("Added reminder"), nameStyle.Render(reminder.Title), dimStyle.Render("due "+reminder.DueDate))
	return nil
}

type ReminderListCmd struct{}

func (c *ReminderListCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	reminders, err := ctx.App.Reminders.List(context.Background(), sess)
	if err != nil {
		return err
	}

	if len(reminders) == 0 {
		ctx.printf("%s\n", dimStyle.Render("No reminders."))
		return nil
	}

	for _, reminder := range reminders {
		ctx.printf("%s %s  %s\n",
			dimStyle.Render(fmt.Sprintf("#%d", reminder.ID)),
			reminder.DueDate,
			nameStyle.Render(reminder.Title),
		)
	}
	return nil
}

type ReminderDeleteCmd struct {
	ID int64 `arg:"" help:"Reminder id."`
}

func (c *ReminderDeleteCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	if err := ctx.App.Reminders.Delete(context.Background(), sess, c.ID); err != nil {
		return err
	}

	ctx.printf("%s %s\n", successStyle.Render("Deleted reminder"), dimStyle.Render(fmt.Sprintf("#%d", c.ID)))
	return nil
}
