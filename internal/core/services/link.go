package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// folderLinkPattern matches the folder ID segment of a Drive sharing link,
// e.g. https://drive.google.com/drive/folders/<id>?usp=sharing.
var folderLinkPattern = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)

// ExtractFolderID returns the folder ID named by a shareable Drive link.
func ExtractFolderID(link string) (string, error) {
	match := folderLinkPattern.FindStringSubmatch(strings.TrimSpace(link))
	if match == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidLink, link)
	}
	return match[1], nil
}
