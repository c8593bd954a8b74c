package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/pkg/apperr"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/rbac"
)

// registerRBACRoutes mounts role, group, permission, assignment, API key,
// and password policy management on the tenant subrouter. The guarding
// module keys mirror the seeded catalog: roles, groups, permissions,
// admin_users for assignments, api for keys.
func (s *Server) registerRBACRoutes(r *mux.Router, perms *middleware.PermissionMiddleware) {
	handle(r, perms, "GET", "/modules", "permissions", rbac.ActionRead, s.listModules)

	handle(r, perms, "POST", "/roles", "roles", rbac.ActionCreate, s.createRole)
	handle(r, perms, "GET", "/roles", "roles", rbac.ActionRead, s.listRoles)
	handle(r, perms, "GET", "/roles/{roleID}", "roles", rbac.ActionRead, s.getRole)
	handle(r, perms, "PATCH", "/roles/{roleID}", "roles", rbac.ActionUpdate, s.updateRole)
	handle(r, perms, "DELETE", "/roles/{roleID}", "roles", rbac.ActionDelete, s.deleteRole)

	handle(r, perms, "POST", "/roles/{roleID}/permissions", "permissions", rbac.ActionCreate, s.createPermission)
	handle(r, perms, "GET", "/roles/{roleID}/permissions", "permissions", rbac.ActionRead, s.listRolePermissions)
	handle(r, perms, "PATCH", "/permissions/{permissionID}", "permissions", rbac.ActionUpdate, s.updatePermission)
	handle(r, perms, "DELETE", "/permissions/{permissionID}", "permissions", rbac.ActionDelete, s.deletePermission)

	handle(r, perms, "POST", "/groups", "groups", rbac.ActionCreate, s.createGroup)
	handle(r, perms, "GET", "/groups", "groups", rbac.ActionRead, s.listGroups)
	handle(r, perms, "GET", "/groups/{groupID}", "groups", rbac.ActionRead, s.getGroup)
	handle(r, perms, "PATCH", "/groups/{groupID}", "groups", rbac.ActionUpdate, s.updateGroup)
	handle(r, perms, "DELETE", "/groups/{groupID}", "groups", rbac.ActionDelete, s.deleteGroup)
	handle(r, perms, "POST", "/groups/{groupID}/roles/{roleID}", "groups", rbac.ActionUpdate, s.assignRoleToGroup)
	handle(r, perms, "DELETE", "/groups/{groupID}/roles/{roleID}", "groups", rbac.ActionUpdate, s.removeRoleFromGroup)
	handle(r, perms, "GET", "/groups/{groupID}/roles", "groups", rbac.ActionRead, s.listGroupRoles)

	handle(r, perms, "POST", "/users/{userID}/roles/{roleID}", "admin_users", rbac.ActionUpdate, s.assignRoleToUser)
	handle(r, perms, "DELETE", "/users/{userID}/roles/{roleID}", "admin_users", rbac.ActionUpdate, s.removeRoleFromUser)
	handle(r, perms, "GET", "/users/{userID}/roles", "admin_users", rbac.ActionRead, s.listUserRoles)
	handle(r, perms, "POST", "/users/{userID}/groups/{groupID}", "admin_users", rbac.ActionUpdate, s.assignGroupToUser)
	handle(r, perms, "DELETE", "/users/{userID}/groups/{groupID}", "admin_users", rbac.ActionUpdate, s.removeGroupFromUser)

	handle(r, perms, "POST", "/apikeys", "api", rbac.ActionCreate, s.createAPIKey)
	handle(r, perms, "GET", "/apikeys", "api", rbac.ActionRead, s.listAPIKeys)
	handle(r, perms, "GET", "/apikeys/{keyID}", "api", rbac.ActionRead, s.getAPIKey)
	handle(r, perms, "PATCH", "/apikeys/{keyID}", "api", rbac.ActionUpdate, s.updateAPIKey)
	handle(r, perms, "DELETE", "/apikeys/{keyID}", "api", rbac.ActionDelete, s.deleteAPIKey)

	handle(r, perms, "GET", "/password-policy", "admin_users", rbac.ActionRead, s.getPasswordPolicy)
	handle(r, perms, "PUT", "/password-policy", "admin_users", rbac.ActionAdmin, s.putPasswordPolicy)
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.rbac.ListModules(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, modules)
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	accountID := middleware.GetAccountID(r.Context())
	role, err := s.rbac.CreateRole(r.Context(), req.Name, req.Description, &accountID, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, role)
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	accountID := middleware.GetAccountID(r.Context())
	roles, err := s.rbac.ListRoles(r.Context(), &accountID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, roles)
}

func (s *Server) getRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	role, err := s.rbac.GetRole(r.Context(), roleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	var update rbac.RoleUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	role, err := s.rbac.UpdateRole(r.Context(), roleID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, role)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	if err := s.rbac.DeleteRole(r.Context(), roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createPermissionRequest struct {
	ModuleKey string `json:"module_key"`
	CanCreate bool   `json:"can_create"`
	CanRead   bool   `json:"can_read"`
	CanUpdate bool   `json:"can_update"`
	CanDelete bool   `json:"can_delete"`
	CanAdmin  bool   `json:"can_admin"`
}

func (s *Server) createPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	var req createPermissionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	module, err := s.rbac.GetModuleByKey(r.Context(), req.ModuleKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	perm, err := s.rbac.CreatePermission(r.Context(), &rbac.Permission{
		RoleID:    roleID,
		ModuleID:  module.ID,
		CanCreate: req.CanCreate,
		CanRead:   req.CanRead,
		CanUpdate: req.CanUpdate,
		CanDelete: req.CanDelete,
		CanAdmin:  req.CanAdmin,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, perm)
}

func (s *Server) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	perms, err := s.rbac.ListPermissionsByRole(r.Context(), roleID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, perms)
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := httputil.PathVarOrError(w, r, "permissionID")
	if !ok {
		return
	}
	var update rbac.PermissionUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	perm, err := s.rbac.UpdatePermission(r.Context(), permissionID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, perm)
}

func (s *Server) deletePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := httputil.PathVarOrError(w, r, "permissionID")
	if !ok {
		return
	}
	if err := s.rbac.DeletePermission(r.Context(), permissionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	group, err := s.rbac.CreateGroup(r.Context(), req.Name, req.Description, middleware.GetAccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, group)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	groups, err := s.rbac.ListGroups(r.Context(), middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	group, err := s.rbac.GetGroup(r.Context(), middleware.GetAccountID(r.Context()), groupID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	var update rbac.GroupUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	group, err := s.rbac.UpdateGroup(r.Context(), middleware.GetAccountID(r.Context()), groupID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, group)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	if err := s.rbac.DeleteGroup(r.Context(), middleware.GetAccountID(r.Context()), groupID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) assignRoleToGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	if err := s.rbac.AssignRoleToGroup(r.Context(), groupID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]string{"group_id": groupID, "role_id": roleID})
}

func (s *Server) removeRoleFromGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	if err := s.rbac.RemoveRoleFromGroup(r.Context(), groupID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) listGroupRoles(w http.ResponseWriter, r *http.Request) {
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	roles, err := s.rbac.ListGroupRoles(r.Context(), groupID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, roles)
}

func (s *Server) assignRoleToUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	if err := s.rbac.AssignRoleToUser(r.Context(), userID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]string{"user_id": userID, "role_id": roleID})
}

func (s *Server) removeRoleFromUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := httputil.PathVarOrError(w, r, "roleID")
	if !ok {
		return
	}
	if err := s.rbac.RemoveRoleFromUser(r.Context(), userID, roleID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) listUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	roles, err := s.rbac.ListUserRoles(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, roles)
}

func (s *Server) assignGroupToUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	if err := s.rbac.AssignGroupToUser(r.Context(), userID, groupID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]string{"user_id": userID, "group_id": groupID})
}

func (s *Server) removeGroupFromUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	groupID, ok := httputil.PathVarOrError(w, r, "groupID")
	if !ok {
		return
	}
	if err := s.rbac.RemoveGroupFromUser(r.Context(), userID, groupID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createAPIKeyRequest struct {
	Name      string     `json:"name"`
	Scopes    *string    `json:"scopes,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type createAPIKeyResponse struct {
	Key   *rbac.APIKey `json:"key"`
	Token string       `json:"token"`
}

func (s *Server) createAPIKey(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	identity := middleware.GetIdentity(r.Context())
	key, token, err := s.rbac.CreateAPIKey(r.Context(), middleware.GetAccountID(r.Context()), req.Name, req.Scopes, req.ExpiresAt, identity.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	// The plaintext token is shown exactly once.
	httputil.WriteCreated(w, createAPIKeyResponse{Key: key, Token: token})
}

func (s *Server) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	keys, err := s.rbac.ListAPIKeys(r.Context(), middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, keys)
}

func (s *Server) getAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := httputil.PathVarOrError(w, r, "keyID")
	if !ok {
		return
	}
	key, err := s.rbac.GetAPIKey(r.Context(), middleware.GetAccountID(r.Context()), keyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, key)
}

func (s *Server) updateAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := httputil.PathVarOrError(w, r, "keyID")
	if !ok {
		return
	}
	var update rbac.APIKeyUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	key, err := s.rbac.UpdateAPIKey(r.Context(), middleware.GetAccountID(r.Context()), keyID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, key)
}

func (s *Server) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, ok := httputil.PathVarOrError(w, r, "keyID")
	if !ok {
		return
	}
	if err := s.rbac.DeleteAPIKey(r.Context(), middleware.GetAccountID(r.Context()), keyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) getPasswordPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.rbac.EffectivePasswordPolicy(r.Context(), middleware.GetAccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, policy)
}

// putPasswordPolicy creates the account's policy on first write and
// applies a partial update afterwards.
func (s *Server) putPasswordPolicy(w http.ResponseWriter, r *http.Request) {
	var update rbac.PasswordPolicyUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	accountID := middleware.GetAccountID(r.Context())
	existing, err := s.rbac.GetPasswordPolicy(r.Context(), &accountID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			httputil.WriteError(w, err)
			return
		}
		created, err := s.rbac.CreatePasswordPolicy(r.Context(), &accountID, rbac.DefaultPasswordPolicy())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		existing = created
	}

	policy, err := s.rbac.UpdatePasswordPolicy(r.Context(), existing.ID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, policy)
}
