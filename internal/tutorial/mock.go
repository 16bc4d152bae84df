package tutorial

// Demo data shown by the mock app. None of it is backed by a real account.

type MockProject struct {
	Name   string `json:"name"`
	Client string `json:"client"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

type MockTaskType struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	DemoClients = []string{
		"Henderson Residence",
		"Maple Street Dental",
		"Northside Properties",
		"Riverbend HOA",
	}

	DemoTaskTypes = []MockTaskType{
		{Name: "Demolition", Color: "#C0392B"},
		{Name: "Framing", Color: "#D68910"},
		{Name: "Install", Color: "#2874A6"},
		{Name: "Inspection", Color: "#1E8449"},
	}

	DemoCrew = []string{
		"Jackson M.",
		"Priya S.",
		"Luis R.",
		"Dana K.",
	}

	DemoProjectName = "Backyard Deck Rebuild"

	DemoBoard = []MockProject{
		{Name: "Kitchen Remodel", Client: "Henderson Residence", Status: "In Progress", Color: "#2874A6"},
		{Name: "Roof Repair", Client: "Riverbend HOA", Status: "Estimated", Color: "#D68910"},
		{Name: "Office Buildout", Client: "Maple Street Dental", Status: "Accepted", Color: "#1E8449"},
	}
)

// ProjectStatuses is the order a project card moves through on the job board
var ProjectStatuses = []string{"RFQ", "Estimated", "Accepted", "In Progress", "Completed", "Closed"}

// BoardFor returns the job board cards for a session, including the project
// the user created once the tutorial has reached that point.
func BoardFor(v View) []MockProject {
	board := append([]MockProject(nil), DemoBoard...)
	if !v.Visibility.NewCard {
		return board
	}

	name := v.Selections.ProjectName
	if name == "" {
		name = DemoProjectName
	}
	status := "Accepted"
	if v.Phase.Index() > PhaseJobBoardStatusUpdate.Index() {
		status = "In Progress"
	}
	card := MockProject{Name: name, Client: v.Selections.Client, Status: status, Color: "#7D3C98"}
	return append([]MockProject{card}, board...)
}
