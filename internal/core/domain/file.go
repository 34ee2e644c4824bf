package domain

import "strings"

// Drive MIME types recognised by the collector.
const (
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	MimeTypePDF          = "application/pdf"
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
)

// FileKind is the collector's classification of a listed item.
type FileKind int

const (
	// KindIgnored items are dropped from the result.
	KindIgnored FileKind = iota
	// KindFolder items are descended into.
	KindFolder
	// KindDownloadable items can be fetched byte-for-byte.
	KindDownloadable
	// KindExportable items are Google Workspace files that must be converted first.
	KindExportable
)

// String returns the string representation.
func (k FileKind) String() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindDownloadable:
		return "downloadable"
	case KindExportable:
		return "exportable"
	default:
		return "ignored"
	}
}

// Classify maps a MIME type to its FileKind.
func Classify(mimeType string) FileKind {
	switch mimeType {
	case MimeTypeFolder:
		return KindFolder
	case MimeTypePDF:
		return KindDownloadable
	case MimeTypeGoogleDoc, MimeTypeGoogleSheet, MimeTypeGoogleSlides:
		return KindExportable
	default:
		return KindIgnored
	}
}

// CollectableMimeTypes lists every MIME type the collector keeps or descends into.
// The Drive lister narrows its listing query to these.
func CollectableMimeTypes() []string {
	return []string{
		MimeTypeFolder,
		MimeTypePDF,
		MimeTypeGoogleDoc,
		MimeTypeGoogleSheet,
		MimeTypeGoogleSlides,
	}
}

// FileDescriptor identifies a remote file. Immutable once listed.
type FileDescriptor struct {
	// ID is the opaque remote identifier.
	ID string `json:"id"`
	// Name is the file's display name.
	Name string `json:"name"`
	// MIMEType is the remote MIME type.
	MIMEType string `json:"mime_type"`
}

// Kind classifies the descriptor by its MIME type.
func (f FileDescriptor) Kind() FileKind {
	return Classify(f.MIMEType)
}

// IsExportable returns true if the file must be exported before download.
func (f FileDescriptor) IsExportable() bool {
	return f.Kind() == KindExportable
}

// ExportTarget returns the MIME type a workspace file is exported to and the
// file extension matching it. Every supported workspace type exports to PDF
// so that the whole corpus is uniform for the assistant.
// ok is false for files that are downloaded as-is.
func ExportTarget(mimeType string) (target, ext string, ok bool) {
	if Classify(mimeType) != KindExportable {
		return "", "", false
	}
	return MimeTypePDF, ".pdf", true
}

// LocalName returns the file name to use on disk, adding the export
// extension when the remote name lacks it.
func (f FileDescriptor) LocalName() string {
	name := f.Name
	if name == "" {
		name = f.ID
	}
	if _, ext, ok := ExportTarget(f.MIMEType); ok && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}
