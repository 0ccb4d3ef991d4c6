package carousel

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	keySeparator = "-"
	deletePrefix = "delete" + keySeparator
	imagePrefix  = "images"

	// maxImageNameLength bounds the base name so keys fit the image column
	// and thumbnail names stay under the filesystem name limit.
	maxImageNameLength = 100
)

// Editable item fields addressed by "<field>-<id>" keys
const (
	FieldTitle    = "title"
	FieldPosition = "position"
	FieldLink     = "link"
	FieldText     = "text"
)

// parseDeleteKey extracts the item id of a "delete-<id>" key
func parseDeleteKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, deletePrefix) {
		return 0, false
	}
	return parseKeyID(strings.Split(key, keySeparator))
}

// parseFieldKey splits a "<field>-<id>" key. Anything after a second
// separator is ignored.
func parseFieldKey(key string) (string, int64, bool) {
	if !strings.Contains(key, keySeparator) {
		return "", 0, false
	}
	parts := strings.Split(key, keySeparator)
	id, ok := parseKeyID(parts)
	if !ok {
		return "", 0, false
	}
	return parts[0], id, true
}

func parseKeyID(parts []string) (int64, bool) {
	if len(parts) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isEditableField(field string) bool {
	switch field {
	case FieldTitle, FieldPosition, FieldLink, FieldText:
		return true
	}
	return false
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewImageKey returns a fresh storage key for an uploaded image.
// The extension always matches the decoded format.
func NewImageKey(fileName, format string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "._")
	if len(name) > maxImageNameLength {
		name = strings.TrimRight(name[:maxImageNameLength], "._")
	}
	if name == "" || name == "/" {
		name = "image"
	}
	if format == "" {
		format = "bin"
	}
	return path.Join(imagePrefix, uuid.NewString(), name+"."+format)
}
