package site

import (
	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	. "maragu.dev/gomponents/html"

	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/pkg/workflows"
)

// signupOrder is the order the progress dots are drawn in
var signupOrder = []string{
	workflows.StepAccount,
	workflows.StepProfile,
	workflows.StepCompany,
	workflows.StepInvite,
	workflows.StepDownload,
}

// SignupPage renders one step of the signup funnel, prefilled from the
// visitor's onboarding state.
func SignupPage(step string, st *onboarding.State, links sms.AppLinks) g.Node {
	var title string
	var body g.Node
	switch step {
	case workflows.StepAccount:
		title, body = "Create your account", accountStep()
	case workflows.StepProfile:
		title, body = "About you", profileStep(st)
	case workflows.StepCompany:
		title, body = "Your company", companyStep(st)
	case workflows.StepInvite:
		title, body = "Invite your crew", inviteStep(st)
	case workflows.StepDownload, workflows.StepDone:
		title, body = "Get the app", downloadStep(st, links)
	}

	return Layout(
		PageConfig{Title: title, Variant: st.Variant},
		Section(Class("signup"), Data("step", step),
			signupProgress(step),
			H1(g.Text(title)),
			body,
		),
		Script(g.Raw(signupScript)),
	)
}

func signupProgress(current string) g.Node {
	reached := true
	return Ol(Class("signup-progress"),
		g.Map(signupOrder, func(step string) g.Node {
			li := Li(c.Classes{"signup-dot": true, "signup-dot-done": reached && step != current, "signup-dot-current": step == current}, g.Text(step))
			if step == current {
				reached = false
			}
			return li
		}),
	)
}

// apiForm is submitted as JSON to endpoint by signupScript, which then
// navigates to next.
func apiForm(endpoint, next string, children ...g.Node) g.Node {
	return g.El("form", Class("signup-form"), Method("post"), Data("endpoint", endpoint), Data("next", next),
		g.Group(children),
		P(Class("signup-error"), g.Attr("role", "alert")),
	)
}

func field(label, name, typ, value string, attrs ...g.Node) g.Node {
	return Label(Class("signup-field"),
		Span(g.Text(label)),
		Input(Type(typ), Name(name), g.If(value != "", Value(value)), g.Group(attrs)),
	)
}

func accountStep() g.Node {
	return Div(
		apiForm("/api/auth/signup", "/signup/"+workflows.StepProfile,
			field("Email", "email", "email", "", Required(), AutoComplete("email")),
			field("Password", "password", "password", "", Required(), MinLength("8"), AutoComplete("new-password")),
			Button(Type("submit"), Class("btn btn-primary"), g.Text("Sign up")),
		),
		P(Class("signup-alt"), g.Text("Already on OPS? "), A(Href("#login"), g.Text("Log in"))),
		Div(ID("login"),
			apiForm("/api/auth/login", "/signup/"+workflows.StepProfile,
				field("Email", "email", "email", "", Required(), AutoComplete("email")),
				field("Password", "password", "password", "", Required(), AutoComplete("current-password")),
				Button(Type("submit"), Class("btn btn-ghost"), g.Text("Log in")),
			),
		),
	)
}

func profileStep(st *onboarding.State) g.Node {
	return apiForm("/api/user/profile", "/signup/"+workflows.StepCompany,
		Input(Type("hidden"), Name("userId"), Value(st.UserID)),
		field("First name", "firstName", "text", st.FirstName, Required(), AutoComplete("given-name")),
		field("Last name", "lastName", "text", st.LastName, Required(), AutoComplete("family-name")),
		field("Mobile", "phone", "tel", st.Phone, AutoComplete("tel")),
		Button(Type("submit"), Class("btn btn-primary"), g.Text("Continue")),
	)
}

func companyStep(st *onboarding.State) g.Node {
	return Div(Class("signup-company"),
		H2(g.Text("Start a new company")),
		apiForm("/api/company/create", "/signup/"+workflows.StepInvite,
			Input(Type("hidden"), Name("userId"), Value(st.UserID)),
			field("Company name", "name", "text", st.CompanyName, Required(), AutoComplete("organization")),
			field("Industry", "industry", "text", st.Industry),
			Label(Class("signup-field"),
				Span(g.Text("Crew size")),
				Select(Name("size"),
					g.Map([]string{"1-5", "6-20", "21-50", "50+"}, func(size string) g.Node {
						return Option(Value(size), g.If(size == st.CompanySize, Selected()), g.Text(size))
					}),
				),
			),
			Button(Type("submit"), Class("btn btn-primary"), g.Text("Create company")),
		),
		H2(g.Text("Or join your crew")),
		apiForm("/api/company/join", "/signup/"+workflows.StepDownload,
			Input(Type("hidden"), Name("userId"), Value(st.UserID)),
			field("Company code", "companyCode", "text", "", Required(), g.Attr("autocapitalize", "characters")),
			Button(Type("submit"), Class("btn btn-ghost"), g.Text("Join company")),
		),
	)
}

func inviteStep(st *onboarding.State) g.Node {
	return Div(Class("signup-invite"),
		g.If(st.CompanyCode != "",
			P(Class("signup-code"), g.Text("Your company code is "), Strong(g.Text(st.CompanyCode))),
		),
		apiForm("/api/company/invite", "/signup/"+workflows.StepDownload,
			Input(Type("hidden"), Name("companyId"), Value(st.CompanyID)),
			Label(Class("signup-field"),
				Span(g.Text("Emails")),
				Textarea(Name("emails"), Data("list", "true"), Placeholder("one per line")),
			),
			Label(Class("signup-field"),
				Span(g.Text("Mobile numbers")),
				Textarea(Name("phones"), Data("list", "true"), Placeholder("one per line")),
			),
			Button(Type("submit"), Class("btn btn-primary"), g.Text("Send invites")),
		),
		A(Class("signup-skip"), Href("/signup/"+workflows.StepDownload), g.Text("Skip for now")),
	)
}

func downloadStep(st *onboarding.State, links sms.AppLinks) g.Node {
	return Div(Class("signup-download"),
		P(g.Text("You're all set. Get OPS on your phone to start running jobs.")),
		Div(Class("signup-stores"),
			g.If(links.IOS != "", A(Class("btn btn-store"), Href(links.IOS), g.Text("App Store"))),
			g.If(links.Android != "", A(Class("btn btn-store"), Href(links.Android), g.Text("Google Play"))),
		),
		apiForm("/api/sms/app-link", "/signup/"+workflows.StepDone,
			field("Text me a link", "phone", "tel", st.Phone, Required(), AutoComplete("tel")),
			Button(Type("submit"), Class("btn btn-ghost"), g.Text("Send link")),
		),
	)
}

const signupScript = `
document.querySelectorAll("form[data-endpoint]").forEach(function (form) {
  form.addEventListener("submit", async function (e) {
    e.preventDefault();
    var body = {};
    new FormData(form).forEach(function (v, k) {
      var el = form.elements[k];
      if (el && el.dataset && el.dataset.list) {
        body[k] = String(v).split(/[\n,]+/).map(function (s) { return s.trim(); }).filter(Boolean);
      } else if (v !== "") {
        body[k] = v;
      }
    });
    var res = await fetch(form.dataset.endpoint, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      credentials: "same-origin",
      body: JSON.stringify(body)
    });
    if (res.ok) {
      window.location = form.dataset.next;
      return;
    }
    var data = await res.json().catch(function () { return {}; });
    form.querySelector(".signup-error").textContent = data.error || "Something went wrong";
  });
});
`
