package event

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// StorageRoot is the fixed first segment of every attachment key.
const StorageRoot = "Event"

// PublicPrefix is the URL segment under which the server exposes the document root.
const PublicPrefix = "Documents"

// Layout pins where one collection of one company stores its files.
type Layout struct {
	Category    Category
	CompanyID   uint64
	SubCategory SubCategory
}

func (l Layout) Validate() error {
	if l.Category == "" || l.SubCategory == "" {
		return fmt.Errorf("%w: storage category is required", ErrInvalidDetail)
	}
	if l.CompanyID == 0 {
		return ErrCompanyRequired
	}
	return nil
}

// Key returns Event/{Category}/{companyId}/{SubCategory}/{ownerId}/{fileName}, always
// slash separated.
func (l Layout) Key(ownerID uint64, fileName string) string {
	return path.Join(
		StorageRoot,
		string(l.Category),
		strconv.FormatUint(l.CompanyID, 10),
		string(l.SubCategory),
		strconv.FormatUint(ownerID, 10),
		fileName,
	)
}

// PublicURL joins serverURL and a storage key as {serverUrl}/Documents/{key}.
func PublicURL(serverURL string, key string) string {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	return base + "/" + PublicPrefix + "/" + strings.TrimLeft(key, "/")
}

// KeyFromReference accepts a storage key or a public URL built by PublicURL and
// returns the storage key.
func KeyFromReference(serverURL string, ref string) string {
	ref = strings.TrimSpace(ref)
	prefix := strings.TrimRight(strings.TrimSpace(serverURL), "/") + "/" + PublicPrefix + "/"
	if serverURL != "" && strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix)
	}
	if idx := strings.Index(ref, "/"+PublicPrefix+"/"+StorageRoot+"/"); idx >= 0 {
		return ref[idx+len(PublicPrefix)+2:]
	}
	return strings.TrimLeft(ref, "/")
}
