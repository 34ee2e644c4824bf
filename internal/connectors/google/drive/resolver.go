package drive

import "github.com/custodia-labs/drivequery/internal/core/domain"

// Web URL helpers for Drive items.
const (
	folderURLPrefix = "https://drive.google.com/drive/folders/"
	fileURLPrefix   = "https://drive.google.com/file/d/"
	docURLPrefix    = "https://docs.google.com/document/d/"
)

// FolderURL returns the shareable web URL of a folder.
func FolderURL(id string) string {
	return folderURLPrefix + id
}

// FileURL returns the web URL for viewing a file.
// Google Docs open in the editor; everything else in the Drive viewer.
func FileURL(id, mimeType string) string {
	if mimeType == domain.MimeTypeGoogleDoc {
		return DocURL(id)
	}
	return fileURLPrefix + id + "/view"
}

// DocURL returns the editor URL of a Google Doc.
func DocURL(id string) string {
	return docURLPrefix + id + "/edit"
}
