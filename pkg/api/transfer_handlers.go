package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/httputil"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/rbac"
	"github.com/docvault/docvault/pkg/transfer"
)

// multipartMemory is the in-memory threshold for multipart parsing;
// larger parts spill to temp files.
const multipartMemory = 32 << 20

// registerTransferRoutes mounts upload and download orchestration on the
// tenant subrouter.
func (s *Server) registerTransferRoutes(r *mux.Router, perms *middleware.PermissionMiddleware) {
	handle(r, perms, "POST", "/upload", "files", rbac.ActionCreate, s.uploadFile)
	handle(r, perms, "POST", "/upload/bulk", "files", rbac.ActionCreate, s.bulkUpload)
	handle(r, perms, "POST", "/upload/zip", "files", rbac.ActionCreate, s.uploadZip)
	handle(r, perms, "POST", "/office-documents", "files", rbac.ActionCreate, s.createOfficeDocument)

	handle(r, perms, "GET", "/files/{fileID}/download", "files", rbac.ActionRead, s.downloadFile)
	handle(r, perms, "GET", "/files/{fileID}/presign", "files", rbac.ActionRead, s.presignDownload)
	handle(r, perms, "GET", "/download/archive", "files", rbac.ActionRead, s.downloadArchive)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	part, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer part.Close()
	return io.ReadAll(part)
}

func partContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart request")
		return
	}
	folderID := r.FormValue("folder_id")
	if folderID == "" {
		httputil.WriteBadRequest(w, "folder_id form field is required")
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file form field is required")
		return
	}
	content, err := readPart(header)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := s.transfer.UploadFile(r.Context(), middleware.GetAccountID(r.Context()), transfer.UploadRequest{
		FolderID:    folderID,
		Filename:    header.Filename,
		ContentType: partContentType(header),
		Content:     content,
		CreatedBy:   requestUserID(r),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if result.Deduplicated {
		httputil.WriteSuccess(w, result)
		return
	}
	httputil.WriteCreated(w, result)
}

func (s *Server) bulkUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart request")
		return
	}
	folderID := r.FormValue("folder_id")
	if folderID == "" {
		httputil.WriteBadRequest(w, "folder_id form field is required")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httputil.WriteBadRequest(w, "files form field is required")
		return
	}

	createdBy := requestUserID(r)
	items := make([]transfer.UploadRequest, 0, len(headers))
	for _, header := range headers {
		content, err := readPart(header)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		items = append(items, transfer.UploadRequest{
			FolderID:    folderID,
			Filename:    header.Filename,
			ContentType: partContentType(header),
			Content:     content,
			CreatedBy:   createdBy,
		})
	}

	result, err := s.transfer.BulkUpload(r.Context(), middleware.GetAccountID(r.Context()), items)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

func (s *Server) uploadZip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httputil.WriteBadRequest(w, "invalid multipart request")
		return
	}
	rootFolderID := r.FormValue("root_folder_id")
	if rootFolderID == "" {
		httputil.WriteBadRequest(w, "root_folder_id form field is required")
		return
	}
	preserve := r.FormValue("preserve_structure") != "false"
	_, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "file form field is required")
		return
	}
	zipBytes, err := readPart(header)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := s.transfer.UploadZip(r.Context(), middleware.GetAccountID(r.Context()), zipBytes, rootFolderID, preserve, requestUserID(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

type createOfficeDocumentRequest struct {
	FolderID   string         `json:"folder_id"`
	Name       string         `json:"name"`
	OfficeType dms.OfficeType `json:"office_type"`
}

func (s *Server) createOfficeDocument(w http.ResponseWriter, r *http.Request) {
	var req createOfficeDocumentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	file, err := s.transfer.CreateOfficeDocument(r.Context(), middleware.GetAccountID(r.Context()), req.FolderID, req.Name, req.OfficeType, requestUserID(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteCreated(w, file)
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	file, content, err := s.transfer.Download(r.Context(), middleware.GetAccountID(r.Context()), fileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalFilename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) presignDownload(w http.ResponseWriter, r *http.Request) {
	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
	if !ok {
		return
	}
	url, err := s.transfer.PresignDownload(r.Context(), middleware.GetAccountID(r.Context()), fileID, s.presignTTL)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]string{"url": url})
}

// downloadArchive streams a zip of the account's files, optionally scoped
// to one section or one folder. Office stubs have no stored content and
// are reported in the X-Skipped-Files header.
func (s *Server) downloadArchive(w http.ResponseWriter, r *http.Request) {
	sectionID := httputil.OptionalQueryString(r, "section_id")
	folderID := httputil.OptionalQueryString(r, "folder_id")

	zipBytes, skipped, err := s.transfer.DownloadAll(r.Context(), middleware.GetAccountID(r.Context()), sectionID, folderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.zip"`)
	for _, name := range skipped {
		w.Header().Add("X-Skipped-Files", name)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(zipBytes)
}
