// Package media is the boundary to the external object-storage collaborator.
// The core hands it a buffer and gets back a final URL; nothing else about
// storage leaks into the delivery path.
package media

import "context"

// Uploader resolves an attachment buffer to a public URL. UploadImage
// returns a display-optimized URL (the provider applies width/quality/format
// normalization); UploadFile returns the raw stored URL.
type Uploader interface {
	UploadImage(ctx context.Context, fileName string, data []byte) (string, error)
	UploadFile(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}
