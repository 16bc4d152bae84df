// Package site renders the server-side HTML pages: landing, tutorial and
// signup steps.
package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// PageConfig is the per-page head metadata
type PageConfig struct {
	Title       string
	Description string
	Variant     string
	Head        []g.Node
}

// Layout wraps sections in the shared document shell
func Layout(cfg PageConfig, sections ...g.Node) g.Node {
	title := "OPS"
	if cfg.Title != "" {
		title = cfg.Title + " | OPS"
	}

	return Doctype(
		HTML(Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				g.If(cfg.Description != "", Meta(Name("description"), Content(cfg.Description))),
				g.El("title", g.Text(title)),
				Link(Rel("stylesheet"), Href("/static/site.css")),
				g.Group(cfg.Head),
			),
			Body(Class("ops"), g.If(cfg.Variant != "", Data("variant", cfg.Variant)),
				topbar(),
				Main(Class("ops-main"), g.Group(sections)),
				footer(),
			),
		),
	)
}

func topbar() g.Node {
	return Nav(Class("ops-topbar"),
		A(Class("ops-logo"), Href("/"), g.Text("OPS")),
		Div(Class("ops-topbar-links"),
			A(Href("/tutorial"), g.Text("See how it works")),
			A(Class("btn btn-primary"), Href("/signup"), g.Text("Get started")),
		),
	)
}

func footer() g.Node {
	return Footer(Class("ops-footer"),
		P(g.Text("OPS keeps your crew, projects and schedule in one place.")),
		A(Href("/signup"), g.Text("Create an account")),
	)
}
