// Package cli 实现 controla 命令行
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/controla/internal/app"
	"github.com/controla/internal/model"
)

// CLI 是 kong 命令树
type CLI struct {
	LogLevel string `help:"Log level written to stderr." default:"warn" enum:"debug,info,warn,error"`

	Signup   SignupCmd   `cmd:"" help:"Create an account."`
	Login    LoginCmd    `cmd:"" help:"Log in and remember the session."`
	Logout   LogoutCmd   `cmd:"" help:"Forget the stored session."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the logged in user."`
	Habit    HabitCmd    `cmd:"" help:"Manage habits."`
	Reminder ReminderCmd `cmd:"" help:"Manage reminders."`
	Stats    StatsCmd    `cmd:"" help:"Show totals and best streak."`
}

type Context struct {
	App      *app.App
	Sessions *SessionStore
	Out      io.Writer
	// PromptPassword 交互式读取密码
	PromptPassword func(title string) (string, error)
}

// NewContext 构造输出到 stdout 的命令上下文
func NewContext(application *app.App) *Context {
	return &Context{
		App:            application,
		Sessions:       NewSessionStore(application.Auth.Refresh),
		Out:            os.Stdout,
		PromptPassword: promptPassword,
	}
}

// requireSession 返回已保存的会话，否则返回提示登录的错误
func (c *Context) requireSession() (model.Session, error) {
	return c.Sessions.Load(context.Background())
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func promptPassword(title string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("password prompt: %w", err)
	}
	return password, nil
}
