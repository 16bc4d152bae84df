package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Feature is one landing page selling point
type Feature struct {
	Title string
	Body  string
}

// Stat is a headline number on the landing page
type Stat struct {
	Value string
	Label string
}

var (
	landingFeatures = []Feature{
		{Title: "One job board", Body: "Every project from RFQ to closed, visible to the whole crew."},
		{Title: "Tasks that schedule themselves", Body: "Pick a task type, a crew and a day. OPS puts it on everyone's calendar."},
		{Title: "Built for the field", Body: "Big buttons, offline-friendly and quick enough to use with gloves on."},
		{Title: "Invite in seconds", Body: "Share a company code or text your crew a download link."},
	}

	landingStats = []Stat{
		{Value: "5 min", Label: "to set up your first project"},
		{Value: "0", Label: "spreadsheets to maintain"},
		{Value: "1", Label: "app for the office and the field"},
	}
)

// LandingPage is the marketing home page
func LandingPage(variant string) g.Node {
	return Layout(
		PageConfig{
			Title:       "Crew management for the trades",
			Description: "OPS is the crew-management app for contractors: projects, tasks, crew and schedule in one place.",
			Variant:     variant,
		},
		landingHero(),
		landingFeatureGrid(),
		landingStatsBand(),
		landingCTA(),
	)
}

func landingHero() g.Node {
	return Section(Class("hero"),
		H1(g.Text("Run every job from your pocket")),
		P(Class("hero-sub"), g.Text("Projects, tasks, crew and schedule in one app your whole team will actually use.")),
		Div(Class("hero-actions"),
			A(Class("btn btn-primary"), Href("/tutorial"), g.Text("Try it in your browser")),
			A(Class("btn btn-ghost"), Href("/signup"), g.Text("Create an account")),
		),
	)
}

func landingFeatureGrid() g.Node {
	return Section(Class("features"),
		g.Map(landingFeatures, func(f Feature) g.Node {
			return Div(Class("feature-card"),
				H3(g.Text(f.Title)),
				P(g.Text(f.Body)),
			)
		}),
	)
}

func landingStatsBand() g.Node {
	return Section(Class("stats"),
		g.Map(landingStats, func(s Stat) g.Node {
			return Div(Class("stat"),
				Span(Class("stat-value"), g.Text(s.Value)),
				Span(Class("stat-label"), g.Text(s.Label)),
			)
		}),
	)
}

func landingCTA() g.Node {
	return Section(Class("cta"),
		H2(g.Text("Get your crew on OPS")),
		P(g.Text("Free to start. Bring your whole team in a few taps.")),
		A(Class("btn btn-primary"), Href("/signup"), g.Text("Get started")),
	)
}
