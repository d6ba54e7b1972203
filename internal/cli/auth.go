package cli

import (
	"context"
	"errors"

	"github.com/controla/internal/model"
)

type SignupCmd struct {
	Email    string `arg:"" help:"Email address."`
	Password string `help:"Password (prompted when omitted)."`
}

func (c *SignupCmd) Run(ctx *Context) error {
	password, err := resolvePassword(ctx, c.Password, "Choose a password")
	if err != nil {
		return err
	}

	message, err := ctx.App.Auth.SignUp(context.Background(), c.Email, password)
	if err != nil {
		return err
	}

	ctx.printf("%s\n", successStyle.Render(message))
	return nil
}

type LoginCmd struct {
	Email    string `arg:"" help:"Email address."`
	Password string `help:"Password (prompted when omitted)."`
}

func (c *LoginCmd) Run(ctx *Context) error {
	password, err := resolvePassword(ctx, c.Password, "Password")
	if err != nil {
		return err
	}

	sess, err := ctx.App.Auth.SignIn(context.Background(), c.Email, password)
	if err != nil {
		return err
	}
	if err := ctx.Sessions.Save(sess); err != nil {
		return err
	}

	ctx.printf("%s %s\n", successStyle.Render("Logged in as"), nameStyle.Render(sess.Email))
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *Context) error {
	sess, err := ctx.Sessions.Load(context.Background())
	if err == nil {
		// 后端登出失败不影响清除本地会话
		if err := ctx.App.Auth.SignOut(context.Background(), sess); err != nil {
			ctx.printf("%s\n", dimStyle.Render("backend sign out failed: "+err.Error()))
		}
	}

	if err := ctx.Sessions.Delete(); err != nil {
		return err
	}
	ctx.printf("%s\n", successStyle.Render("Logged out"))
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *Context) error {
	sess, err := ctx.requireSession()
	if err != nil {
		return err
	}

	ctx.printf("%s %s\n", nameStyle.Render(sess.Email), dimStyle.Render("("+sess.UserID+")"))
	if !sess.ExpiresAt.IsZero() {
		ctx.printf("%s\n", dimStyle.Render("session expires "+sess.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

func resolvePassword(ctx *Context, given, title string) (string, error) {
	if given != "" {
		return given, nil
	}
	if ctx.PromptPassword == nil {
		return "", errors.New("password is required")
	}
	return ctx.PromptPassword(title)
}

func sessionLabel(sess model.Session) string {
	if sess.Email != "" {
		return sess.Email
	}
	return sess.UserID
}
