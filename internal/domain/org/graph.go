package org

import (
	"sort"
	"strings"
)

// Graph is an immutable snapshot of reporting lines and team membership,
// taken once per request so classification is deterministic for the
// duration of an operation.
type Graph struct {
	employees map[string]Employee
	byEmail   map[string]string
}

func NewGraph(employees []Employee) *Graph {
	g := &Graph{
		employees: make(map[string]Employee, len(employees)),
		byEmail:   make(map[string]string, len(employees)),
	}
	for _, e := range employees {
		g.employees[e.ID] = e
		if e.Email != "" {
			g.byEmail[normalizeEmail(e.Email)] = e.ID
		}
	}
	return g
}

// Email matching is case-insensitive, same as the employee store's lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (g *Graph) Employee(id string) (Employee, bool) {
	e, ok := g.employees[id]
	return e, ok
}

func (g *Graph) EmployeeByEmail(email string) (Employee, bool) {
	id, ok := g.byEmail[normalizeEmail(email)]
	if !ok {
		return Employee{}, false
	}
	return g.Employee(id)
}

func (g *Graph) ManagerOf(id string) (Employee, bool) {
	e, ok := g.employees[id]
	if !ok || e.ManagerID == "" {
		return Employee{}, false
	}
	return g.Employee(e.ManagerID)
}

// IsDirectManager reports whether managerID is employeeID's direct manager.
func (g *Graph) IsDirectManager(managerID, employeeID string) bool {
	e, ok := g.employees[employeeID]
	if !ok {
		return false
	}
	return e.ManagerID != "" && e.ManagerID == managerID
}

func (g *Graph) DirectReports(managerID string) []Employee {
	var reports []Employee
	for _, e := range g.employees {
		if e.ManagerID == managerID {
			reports = append(reports, e)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports
}

func (g *Graph) Size() int {
	return len(g.employees)
}
