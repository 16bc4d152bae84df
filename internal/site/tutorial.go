package site

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"ops-web/ops-web-backend/internal/tutorial"
)

// VideoTutorialPage is the passive walkthrough shown to variant a
func VideoTutorialPage(variant, videoURL string) g.Node {
	return Layout(
		PageConfig{Title: "See how OPS works", Variant: variant},
		Section(Class("tutorial tutorial-video"),
			H1(g.Text("See OPS in two minutes")),
			P(g.Text("Watch a project go from first call to the crew calendar.")),
			Video(Class("tutorial-player"), Src(videoURL), Controls(), g.Attr("playsinline"), g.Attr("preload", "metadata")),
			Ol(Class("tutorial-chapters"),
				g.Map(tutorial.Registry(), func(cfg tutorial.PhaseConfig) g.Node {
					if cfg.Phase.Terminal() {
						return nil
					}
					return Li(g.Text(cfg.Tooltip.Title))
				}),
			),
			A(Class("btn btn-primary"), Href("/signup"), g.Text("Create your account")),
		),
	)
}

// InteractiveTutorialPage renders the simulated app for variant b
func InteractiveTutorialPage(v tutorial.View) g.Node {
	return Layout(
		PageConfig{Title: "Try OPS", Variant: v.Variant, Head: autoRefresh(v)},
		Section(Class("tutorial tutorial-interactive"), Data("session", v.SessionID),
			progressBar(v),
			MockApp(v),
			controlsBar(v),
		),
	)
}

func progressBar(v tutorial.View) g.Node {
	pct := 0
	if v.TotalSteps > 1 {
		pct = (v.Step - 1) * 100 / (v.TotalSteps - 1)
	}
	return Div(Class("tutorial-progress"), g.Attr("role", "progressbar"),
		g.Attr("aria-valuenow", itoa(pct)), g.Attr("aria-valuemin", "0"), g.Attr("aria-valuemax", "100"),
		Div(Class("tutorial-progress-fill"), g.Attr("style", "width:"+itoa(pct)+"%")),
	)
}
