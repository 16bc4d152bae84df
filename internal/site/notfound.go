package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func notFound(message, back string) g.Node {
	return Section(Class("not-found"),
		H1(g.Text("Page not found")),
		P(g.Text(message)),
		A(Class("btn btn-primary"), Href(back), g.Text("Go back")),
	)
}
