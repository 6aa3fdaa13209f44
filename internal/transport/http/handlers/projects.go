package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lipish/xtrace/pkg/response"
)

// ProjectView is the wire shape of GET /api/public/projects. spec.md §1
// scopes this service to a single configured project id; the route still
// exists for SDK compatibility, always returning that one project.
type ProjectView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Projects holds the GET /api/public/projects handler.
type Projects struct {
	projectID string
}

// NewProjects constructs the projects handler.
func NewProjects(defaultProjectID string) *Projects {
	return &Projects{projectID: defaultProjectID}
}

// List handles GET /api/public/projects.
func (h *Projects) List(c *gin.Context) {
	response.OK(c, []ProjectView{{ID: h.projectID, Name: h.projectID}})
}
