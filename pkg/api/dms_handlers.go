package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/rbac"
)

// registerDMSRoutes mounts the document hierarchy, metadata, and search
// routes on the tenant subrouter.
func (s *Server) registerDMSRoutes(r *mux.Router, perms *middleware.PermissionMiddleware) {
	handle(r, perms, "POST", "/sections", "sections", rbac.ActionCreate, s.createSection)
	handle(r, perms, "GET", "/sections", "sections", rbac.ActionRead, s.listSections)
	handle(r, perms, "GET", "/sections/{sectionID}", "sections", rbac.ActionRead, s.getSection)
	handle(r, perms, "PATCH", "/sections/{sectionID}", "sections", rbac.ActionUpdate, s.updateSection)
	handle(r, perms, "DELETE", "/sections/{sectionID}", "sections", rbac.ActionDelete, s.deleteSection)
	handle(r, perms, "GET", "/sections/{sectionID}/tree", "folders", rbac.ActionRead, s.folderTree)

	handle(r, perms, "POST", "/folders", "folders", rbac.ActionCreate, s.createFolder)
	handle(r, perms, "GET", "/folders", "folders", rbac.ActionRead, s.listFolders)
	handle(r, perms, "GET", "/folders/{folderID}", "folders", rbac.ActionRead, s.getFolder)
	handle(r, perms, "PATCH", "/folders/{folderID}", "folders", rbac.ActionUpdate, s.updateFolder)
	handle(r, perms, "DELETE", "/folders/{folderID}", "folders", rbac.ActionDelete, s.deleteFolder)

	handle(r, perms, "GET", "/files", "files", rbac.ActionRead, s.listFiles)
	handle(r, perms, "GET", "/files/deleted", "files", rbac.ActionRead, s.listDeletedFiles)
	handle(r, perms, "GET", "/files/search", "files", rbac.ActionRead, s.searchFiles)
	handle(r, perms, "GET", "/files/by-document-id/{documentID}", "files", rbac.ActionRead, s.getFileByDocumentID)
	handle(r, perms, "GET", "/files/{fileID}", "files", rbac.ActionRead, s.getFile)
	handle(r, perms, "PATCH", "/files/{fileID}", "files", rbac.ActionUpdate, s.updateFile)
	handle(r, perms, "DELETE", "/files/{fileID}", "files", rbac.ActionDelete, s.softDeleteFile)
	handle(r, perms, "POST", "/files/{fileID}/restore", "files", rbac.ActionUpdate, s.restoreFile)
	handle(r, perms, "DELETE", "/files/{fileID}/permanent", "files", rbac.ActionAdmin, s.permanentDeleteFile)

	handle(r, perms, "POST", "/metadata/definitions", "metadata", rbac.ActionCreate, s.createMetadataDefinition)
	handle(r, perms, "GET", "/metadata/definitions", "metadata", rbac.ActionRead, s.listMetadataDefinitions)
	handle(r, perms, "GET", "/metadata/definitions/{definitionID}", "metadata", rbac.ActionRead, s.getMetadataDefinition)
	handle(r, perms, "PATCH", "/metadata/definitions/{definitionID}", "metadata", rbac.ActionUpdate, s.updateMetadataDefinition)
	handle(r, perms, "DELETE", "/metadata/definitions/{definitionID}", "metadata", rbac.ActionDelete, s.deleteMetadataDefinition)
	handle(r, perms, "PUT", "/files/{fileID}/metadata", "metadata", rbac.ActionUpdate, s.putFileMetadata)
	handle(r, perms, "GET", "/files/{fileID}/metadata", "metadata", rbac.ActionRead, s.getFileMetadata)
	handle(r, perms, "DELETE", "/files/{fileID}/metadata/{definitionID}", "metadata", rbac.ActionUpdate, s.deleteFileMetadata)

	handle(r, perms, "POST", "/files/{fileID}/related", "files", rbac.ActionUpdate, s.createRelatedFile)
	handle(r, perms, "GET", "/files/{fileID}/related", "files", rbac.ActionRead, s.listRelatedFiles)
	handle(r, perms, "DELETE", "/files/{fileID}/related/{relatedFileID}", "files", rbac.ActionUpdate, s.deleteRelatedFile)

	handle(r, perms, "POST", "/files/{fileID}/reminders", "files", rbac.ActionUpdate, s.createReminder)
	handle(r, perms, "GET", "/files/{fileID}/reminders", "files", rbac.ActionRead, s.listFileReminders)
	handle(r, perms, "GET", "/reminders", "files", rbac.ActionRead, s.listUserReminders)
	handle(r, perms, "PATCH", "/reminders/{reminderID}", "files", rbac.ActionUpdate, s.updateReminderStatus)
	handle(r, perms, "DELETE", "/reminders/{reminderID}", "files", rbac.ActionDelete, s.deleteReminder)

	handle(r, perms, "POST", "/files/{fileID}/comments", "files", rbac.ActionUpdate, s.createComment)
	handle(r, perms, "GET", "/files/{fileID}/comments", "files", rbac.ActionRead, s.listComments)
	handle(r, perms, "PATCH", "/comments/{commentID}", "files", rbac.ActionUpdate, s.updateComment)
	handle(r, perms, "DELETE", "/comments/{commentID}", "files", rbac.ActionUpdate, s.deleteComment)
}

func requestUserID(r *http.Request) string {
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		return identity.UserID
	}
	return ""
}

type createSectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

func (s *Server) createSection(w http.ResponseWriter, r *http.Request) {
	var req createSectionRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	section, err := s.dms.CreateSection(r.Context(), middleware.GetAccountID(r.Context()), req.Name, req.Description, req.Position, requestUserID(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, section)
}

func (s *Server) listSections(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	sections, err := s.dms.ListSections(r.Context(), middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, sections)
}

func (s *Server) getSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := httputil.PathVarOrError(w, r, "sectionID")
	if !ok {
		return
	}
	section, err := s.dms.GetSection(r.Context(), middleware.GetAccountID(r.Context()), sectionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, section)
}

func (s *Server) updateSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := httputil.PathVarOrError(w, r, "sectionID")
	if !ok {
		return
	}
	var update dms.SectionUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	section, err := s.dms.UpdateSection(r.Context(), middleware.GetAccountID(r.Context()), sectionID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, section)
}

func (s *Server) deleteSection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := httputil.PathVarOrError(w, r, "sectionID")
	if !ok {
		return
	}
	if err := s.dms.DeleteSection(r.Context(), middleware.GetAccountID(r.Context()), sectionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) folderTree(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := httputil.PathVarOrError(w, r, "sectionID")
	if !ok {
		return
	}
	tree, err := s.dms.FolderTree(r.Context(), middleware.GetAccountID(r.Context()), sectionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, tree)
}

type createFolderRequest struct {
	SectionID      string  `json:"section_id"`
	ParentFolderID *string `json:"parent_folder_id,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	folder, err := s.dms.CreateFolder(r.Context(), middleware.GetAccountID(r.Context()), req.SectionID, req.ParentFolderID, req.Name, req.Description, requestUserID(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, folder)
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	sectionID := httputil.ParseQueryString(r, "section_id", "")
	if sectionID == "" {
		httputil.WriteBadRequest(w, "section_id query parameter is required")
		return
	}
	parentFolderID := httputil.OptionalQueryString(r, "parent_folder_id")

	folders, err := s.dms.ListFolders(r.Context(), middleware.GetAccountID(r.Context()), sectionID, parentFolderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, folders)
}

func (s *Server) getFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := httputil.PathVarOrError(w, r, "folderID")
	if !ok {
		return
	}
	folder, err := s.dms.GetFolder(r.Context(), middleware.GetAccountID(r.Context()), folderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, folder)
}

func (s *Server) updateFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := httputil.PathVarOrError(w, r, "folderID")
	if !ok {
		return
	}
	var update dms.FolderUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	folder, err := s.dms.UpdateFolder(r.Context(), middleware.GetAccountID(r.Context()), folderID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, folder)
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID, ok := httputil.PathVarOrError(w, r, "folderID")
	if !ok {
		return
	}
	if err := s.dms.DeleteFolder(r.Context(), middleware.GetAccountID(r.Context()), folderID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	folderID := httputil.ParseQueryString(r, "folder_id", "")
	if folderID == "" {
		httputil.WriteBadRequest(w, "folder_id query parameter is required")
		return
	}
	limit, offset := httputil.Pagination(r)

	files, err := s.dms.ListFiles(r.Context(), middleware.GetAccountID(r.Context()), folderID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, files)
}

func (s *Server) listDeletedFiles(w http.ResponseWriter, r *http.Request) {
	limit, offset := httputil.Pagination(r)
	files, err := s.dms.ListDeletedFiles(r.Context(), middleware.GetAccountID(r.Context()), limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, files)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	file, err := s.dms.GetFile(r.Context(), middleware.GetAccountID(r.Context()), fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, file)
}

func (s *Server) getFileByDocumentID(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.PathVarOrError(w, r, "documentID")
	if !ok {
		return
	}
	file, err := s.dms.GetFileByDocumentID(r.Context(), middleware.GetAccountID(r.Context()), documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, file)
}

func (s *Server) updateFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	var update dms.FileUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	file, err := s.dms.UpdateFile(r.Context(), middleware.GetAccountID(r.Context()), fileID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, file)
}

func (s *Server) softDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	if err := s.dms.SoftDeleteFile(r.Context(), middleware.GetAccountID(r.Context()), fileID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) restoreFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	if err := s.dms.RestoreFile(r.Context(), middleware.GetAccountID(r.Context()), fileID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	file, err := s.dms.GetFile(r.Context(), middleware.GetAccountID(r.Context()), fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, file)
}

// permanentDeleteFile removes the blob and the row; the orchestrator
// deletes the blob first so the row never outlives its content.
func (s *Server) permanentDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	if err := s.transfer.PermanentDelete(r.Context(), middleware.GetAccountID(r.Context()), fileID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) searchFiles(w http.ResponseWriter, r *http.Request) {
	query := httputil.ParseQueryString(r, "q", "")
	if query == "" {
		httputil.WriteBadRequest(w, "q query parameter is required")
		return
	}
	limit, offset := httputil.Pagination(r)
	params := dms.SearchParams{
		Query:     query,
		Scope:     dms.SearchScope(httputil.ParseQueryString(r, "scope", string(dms.ScopeAll))),
		SectionID: httputil.OptionalQueryString(r, "section_id"),
		FolderID:  httputil.OptionalQueryString(r, "folder_id"),
		Limit:     limit,
		Offset:    offset,
	}

	results, err := s.dms.SearchFiles(r.Context(), middleware.GetAccountID(r.Context()), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, results)
}

func (s *Server) createMetadataDefinition(w http.ResponseWriter, r *http.Request) {
	var def dms.MetadataDefinition
	if !httputil.ParseJSONOrError(w, r, &def) {
		return
	}
	def.AccountID = middleware.GetAccountID(r.Context())
	def.CreatedBy = requestUserID(r)

	created, err := s.dms.CreateMetadataDefinition(r.Context(), &def)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, created)
}

func (s *Server) listMetadataDefinitions(w http.ResponseWriter, r *http.Request) {
	sectionID := httputil.OptionalQueryString(r, "section_id")
	defs, err := s.dms.ListMetadataDefinitions(r.Context(), middleware.GetAccountID(r.Context()), sectionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, defs)
}

func (s *Server) getMetadataDefinition(w http.ResponseWriter, r *http.Request) {
	definitionID, ok := httputil.PathVarOrError(w, r, "definitionID")
	if !ok {
		return
	}
	def, err := s.dms.GetMetadataDefinition(r.Context(), middleware.GetAccountID(r.Context()), definitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, def)
}

func (s *Server) updateMetadataDefinition(w http.ResponseWriter, r *http.Request) {
	definitionID, ok := httputil.PathVarOrError(w, r, "definitionID")
	if !ok {
		return
	}
	var update dms.MetadataDefinitionUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	def, err := s.dms.UpdateMetadataDefinition(r.Context(), middleware.GetAccountID(r.Context()), definitionID, update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, def)
}

func (s *Server) deleteMetadataDefinition(w http.ResponseWriter, r *http.Request) {
	definitionID, ok := httputil.PathVarOrError(w, r, "definitionID")
	if !ok {
		return
	}
	if err := s.dms.DeleteMetadataDefinition(r.Context(), middleware.GetAccountID(r.Context()), definitionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type putFileMetadataRequest struct {
	Values []dms.MetadataValue `json:"values"`
}

func (s *Server) putFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	var req putFileMetadataRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	accountID := middleware.GetAccountID(r.Context())
	if err := s.dms.UpdateFileMetadata(r.Context(), accountID, fileID, req.Values); err != nil {
		httputil.WriteError(w, err)
		return
	}
	values, err := s.dms.GetFileMetadata(r.Context(), accountID, fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, values)
}

func (s *Server) getFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	values, err := s.dms.GetFileMetadata(r.Context(), middleware.GetAccountID(r.Context()), fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, values)
}

func (s *Server) deleteFileMetadata(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	definitionID, ok := httputil.PathVarOrError(w, r, "definitionID")
	if !ok {
		return
	}
	if err := s.dms.DeleteFileMetadata(r.Context(), middleware.GetAccountID(r.Context()), fileID, definitionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createRelatedFileRequest struct {
	TargetDocumentID string  `json:"target_document_id"`
	RelationshipType *string `json:"relationship_type,omitempty"`
}

func (s *Server) createRelatedFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	var req createRelatedFileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	link, err := s.dms.CreateRelatedFile(r.Context(), middleware.GetAccountID(r.Context()), fileID, req.TargetDocumentID, req.RelationshipType, requestUserID(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, link)
}

func (s *Server) listRelatedFiles(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	links, err := s.dms.ListRelatedFiles(r.Context(), middleware.GetAccountID(r.Context()), fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, links)
}

func (s *Server) deleteRelatedFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	relatedFileID, ok := httputil.PathVarOrError(w, r, "relatedFileID")
	if !ok {
		return
	}
	if err := s.dms.DeleteRelatedFile(r.Context(), middleware.GetAccountID(r.Context()), fileID, relatedFileID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type createReminderRequest struct {
	TargetUserID string    `json:"target_user_id"`
	RemindAt     time.Time `json:"remind_at"`
	Message      string    `json:"message"`
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	var req createReminderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	reminder, err := s.dms.CreateReminder(r.Context(), middleware.GetAccountID(r.Context()), fileID, requestUserID(r), req.TargetUserID, req.RemindAt, req.Message)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, reminder)
}

func (s *Server) listFileReminders(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	limit, offset := httputil.Pagination(r)
	reminders, err := s.dms.ListFileReminders(r.Context(), middleware.GetAccountID(r.Context()), fileID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, reminders)
}

// listUserReminders returns the calling user's reminders; due_only=true
// restricts to pending reminders whose remind_at has passed.
func (s *Server) listUserReminders(w http.ResponseWriter, r *http.Request) {
	dueOnly, err := httputil.ParseQueryBool(r, "due_only", false)
	if err != nil {
		httputil.WriteBadRequest(w, "due_only must be a boolean")
		return
	}
	limit, offset := httputil.Pagination(r)

	reminders, err := s.dms.ListUserReminders(r.Context(), middleware.GetAccountID(r.Context()), requestUserID(r), dueOnly, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, reminders)
}

type updateReminderRequest struct {
	Status dms.ReminderStatus `json:"status"`
}

func (s *Server) updateReminderStatus(w http.ResponseWriter, r *http.Request) {
	reminderID, ok := httputil.PathVarOrError(w, r, "reminderID")
	if !ok {
		return
	}
	var req updateReminderRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	reminder, err := s.dms.UpdateReminderStatus(r.Context(), middleware.GetAccountID(r.Context()), reminderID, req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, reminder)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	reminderID, ok := httputil.PathVarOrError(w, r, "reminderID")
	if !ok {
		return
	}
	if err := s.dms.DeleteReminder(r.Context(), middleware.GetAccountID(r.Context()), reminderID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	comment, err := s.dms.CreateComment(r.Context(), middleware.GetAccountID(r.Context()), fileID, requestUserID(r), req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, comment)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	limit, offset := httputil.Pagination(r)
	comments, err := s.dms.ListComments(r.Context(), middleware.GetAccountID(r.Context()), fileID, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, comments)
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := httputil.PathVarOrError(w, r, "commentID")
	if !ok {
		return
	}
	var req commentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	comment, err := s.dms.UpdateComment(r.Context(), middleware.GetAccountID(r.Context()), commentID, requestUserID(r), req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, comment)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := httputil.PathVarOrError(w, r, "commentID")
	if !ok {
		return
	}
	if err := s.dms.DeleteComment(r.Context(), middleware.GetAccountID(r.Context()), commentID, requestUserID(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
