// Package httputil provides HTTP utilities for standardized request/response
// handling.
//
// # Responses
//
// Handlers return domain errors and let WriteError map them to status codes
// by kind:
//
//	file, err := store.GetFile(ctx, accountID, fileID)
//	if err != nil {
//		httputil.WriteError(w, err) // 404 for not-found, 409 for conflicts, ...
//		return
//	}
//	httputil.WriteSuccess(w, file)
//
// # Request parsing
//
//	var req CreateFolderRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // error response already written
//	}
//	fileID, ok := httputil.PathVarOrError(w, r, "fileID")
//	limit, offset := httputil.Pagination(r)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(100*1024*1024),
//	)
//
// Authentication and permission middleware live in pkg/middleware.
package httputil
