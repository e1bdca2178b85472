package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-liftlog/internal/config"
)

// Navigation sections, used by the layout to highlight the active tab
const (
	NavHome     = "home"
	NavWorkouts = "workouts"
	NavDiet     = "diet"
	NavTimer    = "timer"
	NavAuth     = "auth"
)

// PageDef maps a route to the template it renders.
// Script is the page's own browser script under /static/javascript/, if any.
type PageDef struct {
	Route    string
	Template string
	Title    string
	Nav      string
	Script   string
}

// TemplateData is everything a page template can see.
// None of it depends on the request, so a page renders identically every time.
type TemplateData struct {
	Title      string
	AppName    string
	AppVersion string
	Nav        string
	Script     string
}

var pages = []PageDef{
	// Home / Dashboard
	{Route: "/", Template: "home.html", Title: "Dashboard", Nav: NavHome},

	// Workouts screens
	{Route: "/workouts", Template: "workouts.html", Title: "Workouts", Nav: NavWorkouts, Script: "workouts.js"},
	{Route: "/workouts/new", Template: "workout_new.html", Title: "New Workout", Nav: NavWorkouts, Script: "workout_new.js"},
	{Route: "/workouts/edit", Template: "workout_edit.html", Title: "Edit Workout", Nav: NavWorkouts, Script: "workout_edit.js"},
	{Route: "/workouts/delete", Template: "workout_delete.html", Title: "Delete Workout", Nav: NavWorkouts, Script: "workout_delete.js"},

	// Diet screens
	{Route: "/diet", Template: "diet.html", Title: "Diet", Nav: NavDiet, Script: "diet.js"},
	{Route: "/diet/new", Template: "diet_new.html", Title: "New Meal", Nav: NavDiet, Script: "diet_new.js"},
	{Route: "/diet/delete", Template: "diet_delete.html", Title: "Delete Meal", Nav: NavDiet, Script: "diet_delete.js"},

	// Auth screens
	{Route: "/login", Template: "login.html", Title: "Login", Nav: NavAuth, Script: "login.js"},
	{Route: "/register", Template: "register.html", Title: "Register", Nav: NavAuth, Script: "register.js"},

	// Timer screen
	{Route: "/timer", Template: "timer.html", Title: "Rest Timer", Nav: NavTimer, Script: "timer.js"},
}

// Pages returns a copy of the route table
func Pages() []PageDef {
	return append([]PageDef(nil), pages...)
}

func pageTemplates() []string {
	names := make([]string, 0, len(pages))
	for _, p := range pages {
		names = append(names, p.Template)
	}
	return names
}

// getBaseTemplateData creates the TemplateData for a page
func (s *WebServer) getBaseTemplateData(page PageDef) TemplateData {
	return TemplateData{
		Title:      page.Title,
		AppName:    config.AppName,
		AppVersion: config.AppVersion,
		Nav:        page.Nav,
		Script:     page.Script,
	}
}

// pageHandler renders a page. It reads nothing from the request.
func (s *WebServer) pageHandler(page PageDef) gin.HandlerFunc {
	data := s.getBaseTemplateData(page)
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, page.Template, data)
	}
}
