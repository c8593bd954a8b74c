package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/middleware"
)

// registerAccountRoutes mounts account administration under /api/v1/accounts.
// Every operation here requires a super-admin identity: accounts are the
// tenant boundary, so no tenant-scoped permission can govern them.
func (s *Server) registerAccountRoutes(r *mux.Router) {
	r.HandleFunc("", s.requireSuperAdmin(s.createAccount)).Methods("POST")
	r.HandleFunc("", s.requireSuperAdmin(s.listAccounts)).Methods("GET")
	r.HandleFunc("/slug/{slug}", s.requireSuperAdmin(s.getAccountBySlug)).Methods("GET")
	r.HandleFunc("/{accountID}", s.requireSuperAdmin(s.getAccount)).Methods("GET")
	r.HandleFunc("/{accountID}", s.requireSuperAdmin(s.updateAccount)).Methods("PATCH")
	r.HandleFunc("/{accountID}", s.requireSuperAdmin(s.deleteAccount)).Methods("DELETE")

	r.HandleFunc("/{accountID}/users", s.requireSuperAdmin(s.addAccountUser)).Methods("POST")
	r.HandleFunc("/{accountID}/users", s.requireSuperAdmin(s.listAccountUsers)).Methods("GET")
	r.HandleFunc("/{accountID}/users/{userID}", s.requireSuperAdmin(s.updateAccountUser)).Methods("PATCH")
	r.HandleFunc("/{accountID}/users/{userID}", s.requireSuperAdmin(s.removeAccountUser)).Methods("DELETE")
}

func (s *Server) requireSuperAdmin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.GetIdentity(r.Context())
		if identity == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if !identity.SuperAdmin {
			httputil.WriteForbidden(w, "super-admin access required")
			return
		}
		h(w, r)
	}
}

type createAccountRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	account, err := s.rbac.CreateAccount(r.Context(), req.Name, req.Slug)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, account)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	accounts, err := s.rbac.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	account, err := s.rbac.GetAccount(r.Context(), accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, account)
}

func (s *Server) getAccountBySlug(w http.ResponseWriter, r *http.Request) {
	slug, ok := httputil.PathVarOrError(w, r, "slug")
	if !ok {
		return
	}
	account, err := s.rbac.GetAccountBySlug(r.Context(), slug)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, account)
}

type updateAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	var req updateAccountRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	account, err := s.rbac.UpdateAccount(r.Context(), accountID, req.Name, req.IsActive)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, account)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	if err := s.rbac.DeleteAccount(r.Context(), accountID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type accountUserRequest struct {
	UserID   string `json:"user_id"`
	RoleType string `json:"role_type"`
}

func (s *Server) addAccountUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	var req accountUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.rbac.AssignUserToAccount(r.Context(), req.UserID, accountID, req.RoleType); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, map[string]string{
		"account_id": accountID,
		"user_id":    req.UserID,
		"role_type":  req.RoleType,
	})
}

func (s *Server) listAccountUsers(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	users, err := s.rbac.ListAccountUsers(r.Context(), accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, users)
}

type updateAccountUserRequest struct {
	RoleType string `json:"role_type"`
}

func (s *Server) updateAccountUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	var req updateAccountUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.rbac.UpdateUserAccountRole(r.Context(), userID, accountID, req.RoleType); err != nil {
		httputil.WriteError(w, err)
		return
	}
	roleType, err := s.rbac.GetAccountRoleType(r.Context(), userID, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{
		"account_id": accountID,
		"user_id":    userID,
		"role_type":  roleType,
	})
}

func (s *Server) removeAccountUser(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httputil.PathVarOrError(w, r, "accountID")
	if !ok {
		return
	}
	userID, ok := httputil.PathVarOrError(w, r, "userID")
	if !ok {
		return
	}
	if err := s.rbac.RemoveUserFromAccount(r.Context(), userID, accountID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
