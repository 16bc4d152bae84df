package sms

import (
	"bytes"
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// AppLinks are the store URLs for the OPS mobile app
type AppLinks struct {
	IOS     string `json:"ios"`
	Android string `json:"android"`
}

func (l AppLinks) lines() []string {
	var out []string
	if l.IOS != "" {
		out = append(out, "iPhone: "+l.IOS)
	}
	if l.Android != "" {
		out = append(out, "Android: "+l.Android)
	}
	return out
}

// AppLinkMessage is the text sent by "text me the app"
func AppLinkMessage(links AppLinks) string {
	parts := append([]string{"Download OPS to run your crew from your phone."}, links.lines()...)
	return strings.Join(parts, "\n")
}

// InviteMessage is the text sent to an invited crew member
func InviteMessage(company, code string, links AppLinks) string {
	head := fmt.Sprintf("You've been invited to join %s on OPS.", companyName(company))
	parts := []string{head}
	if code != "" {
		parts = append(parts, fmt.Sprintf("Your company code is %s.", code))
	}
	parts = append(parts, links.lines()...)
	return strings.Join(parts, "\n")
}

// InviteEmail renders the invite as plain text and HTML
func InviteEmail(to []string, company, code string, links AppLinks) (Email, error) {
	name := companyName(company)

	page := HTML(
		Body(Style("font-family:-apple-system,Helvetica,Arial,sans-serif;color:#111"),
			H2(g.Textf("Join %s on OPS", name)),
			P(g.Textf("You've been invited to join %s on OPS, the app crews use to see their jobs and schedule.", name)),
			g.If(code != "",
				P(g.Text("Your company code: "), Strong(g.Text(code))),
			),
			g.If(links.IOS != "", P(A(Href(links.IOS), g.Text("Download for iPhone")))),
			g.If(links.Android != "", P(A(Href(links.Android), g.Text("Download for Android")))),
		),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return Email{}, fmt.Errorf("failed to render invite email: %w", err)
	}

	return Email{
		To:      to,
		Subject: fmt.Sprintf("You're invited to %s on OPS", name),
		Text:    InviteMessage(company, code, links),
		HTML:    buf.String(),
	}, nil
}

func companyName(company string) string {
	if strings.TrimSpace(company) == "" {
		return "your team"
	}
	return company
}
