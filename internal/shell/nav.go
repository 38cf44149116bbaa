// Package shell builds the navigation model shown around every console view.
// It only decides what is visible; access is enforced by the guards.
package shell

import (
	"github.com/spec-kit/asset-console/internal/domain"
)

// Console locations.
const (
	PathLogin       = "/login"
	PathLogout      = "/logout"
	PathEmployees   = "/employees"
	PathAssets      = "/assets"
	PathAssignments = "/assignments"
	PathMyAssets    = "/my-assets"
	PathMyHistory   = "/my-history"
	PathPassword    = "/password/change"
)

// Link is a navigation entry.
type Link struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Action is an operator menu entry.
type Action struct {
	Name   string `json:"name"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Nav is the navigation model for one rendered view.
type Nav struct {
	Operator string   `json:"operator,omitempty"`
	Role     string   `json:"role,omitempty"`
	Links    []Link   `json:"links"`
	Actions  []Action `json:"actions"`
}

var (
	adminLinks = []Link{
		{Path: PathEmployees, Label: "Employees"},
		{Path: PathAssets, Label: "Assets"},
		{Path: PathAssignments, Label: "Assignments"},
	}
	employeeLinks = []Link{
		{Path: PathMyAssets, Label: "My assets"},
		{Path: PathMyHistory, Label: "Assignment history"},
	}
	operatorActions = []Action{
		{Name: "change_password", Method: "POST", Path: PathPassword},
		{Name: "logout", Method: "POST", Path: PathLogout},
	}
)

// Identity is the read-only session view the shell needs.
type Identity interface {
	CurrentIdentity() (domain.Identity, bool)
}

// Build returns the navigation for the current identity with currentPath
// marked active. Anonymous operators get an empty shell.
func Build(s Identity, currentPath string) Nav {
	id, ok := s.CurrentIdentity()
	if !ok {
		return Nav{Links: []Link{}, Actions: []Action{}}
	}

	source := employeeLinks
	if id.Role.Privileged() {
		source = adminLinks
	}
	links := make([]Link, len(source))
	for i, l := range source {
		l.Active = l.Path == currentPath
		links[i] = l
	}

	actions := make([]Action, len(operatorActions))
	copy(actions, operatorActions)

	return Nav{
		Operator: id.SubjectID,
		Role:     string(id.Role),
		Links:    links,
		Actions:  actions,
	}
}

// Landing is where an operator lands after login.
func Landing(id domain.Identity) string {
	if id.Role.Privileged() {
		return PathAssets
	}
	return PathMyAssets
}
