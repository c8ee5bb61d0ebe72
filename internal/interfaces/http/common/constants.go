package common

import "time"

const (
	// MaxJSONBody limits JSON request bodies for content endpoints.
	MaxJSONBody = 1 << 20
	// MaxImportBody limits the snapshot accepted by the import endpoint.
	MaxImportBody = 32 << 20
	// MaxUploadBody limits multipart media uploads.
	MaxUploadBody = 50 << 20
	// RequestTimeout bounds store work done for one request.
	RequestTimeout = 5 * time.Second

	// AdminTokenHeader carries the admin session token.
	AdminTokenHeader = "X-Admin-Token"
	// ResetKeyHeader carries the operator key for password resets.
	ResetKeyHeader = "X-Reset-Key"
)
