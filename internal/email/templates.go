package email

import (
	"fmt"
	"html"

	"github.com/azizikri/pawclub-functions/internal/domain"
)

type content struct {
	subject string
	text    string
	html    string
}

func render(msg domain.Email) (content, error) {
	name := msg.Name
	if name == "" {
		name = "there"
	}

	switch msg.Template {
	case domain.EmailWelcome:
		return content{
			subject: "Welcome to PawClub!",
			text:    fmt.Sprintf("Hi %s,\n\nYour email is verified and your PawClub membership is ready. Show your member card at any partner business to start saving.", name),
			html:    fmt.Sprintf("<p>Hi %s,</p><p>Your email is verified and your PawClub membership is ready. Show your member card at any partner business to start saving.</p>", html.EscapeString(name)),
		}, nil
	case domain.EmailVerify:
		if msg.Link == "" {
			return content{}, fmt.Errorf("email %s: missing link", msg.Template)
		}
		return content{
			subject: "Verify your PawClub email",
			text:    fmt.Sprintf("Hi %s,\n\nConfirm your email address:\n\n%s\n\nThis link expires in 24 hours.", name, msg.Link),
			html:    fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Confirm your email address</a></p><p>This link expires in 24 hours.</p>`, html.EscapeString(name), html.EscapeString(msg.Link)),
		}, nil
	case domain.EmailPasswordReset:
		if msg.Link == "" {
			return content{}, fmt.Errorf("email %s: missing link", msg.Template)
		}
		return content{
			subject: "Reset your PawClub password",
			text:    fmt.Sprintf("Someone asked to reset the password for this account. If it was you, continue here:\n\n%s\n\nThis link expires in 1 hour.", msg.Link),
			html:    fmt.Sprintf(`<p>Someone asked to reset the password for this account.</p><p><a href="%s">Reset your password</a></p><p>This link expires in 1 hour.</p>`, html.EscapeString(msg.Link)),
		}, nil
	default:
		return content{}, fmt.Errorf("unknown email template %q", msg.Template)
	}
}
