package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const RoleHeader = "X-Role"

type Role string

const (
	RoleViewer    Role = "viewer"
	RoleEditor    Role = "editor"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

type Action string

const (
	ActionSave            Action = "save"
	ActionPublish         Action = "publish"
	ActionArchive         Action = "archive"
	ActionDelete          Action = "delete"
	ActionCreateReference Action = "create_reference"
	ActionImport          Action = "import"
	ActionCompose         Action = "compose"
	ActionManageLogs      Action = "manage_logs"
)

var editorActions = []Action{ActionSave, ActionCreateReference, ActionImport, ActionCompose}

var permissions = map[Role]map[Action]bool{
	RoleViewer:    allow(),
	RoleEditor:    allow(editorActions...),
	RolePublisher: allow(append([]Action{ActionPublish, ActionArchive}, editorActions...)...),
	RoleAdmin: allow(append([]Action{ActionPublish, ActionArchive, ActionDelete, ActionManageLogs},
		editorActions...)...),
}

func allow(actions ...Action) map[Action]bool {
	set := make(map[Action]bool, len(actions))
	for _, action := range actions {
		set[action] = true
	}
	return set
}

// ParseRole reads a role name. An empty value is a viewer.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role == "" {
		return RoleViewer, true
	}
	_, ok := permissions[role]
	return role, ok
}

func (r Role) Can(action Action) bool {
	return permissions[r][action]
}

// RequireRole rejects requests whose X-Role may not perform action.
func RequireRole(action Action) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, ok := ParseRole(ctx.GetHeader(RoleHeader))
		if !ok {
			respondError(ctx, http.StatusBadRequest, "unknown role")
			return
		}
		if !role.Can(action) {
			respondError(ctx, http.StatusForbidden, "role "+string(role)+" may not "+strings.ReplaceAll(string(action), "_", " "))
			return
		}
		ctx.Next()
	}
}
