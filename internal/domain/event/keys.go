package event

import (
	"path"
	"strings"

	"github.com/shopspring/decimal"
)

// FileKey is the identity of a file-backed item: its base name, case-insensitive.
func FileKey(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	return strings.ToLower(path.Base(name))
}

// ClaimKey is the content identity of a claim used when the caller supplies no id.
type ClaimKey struct {
	Type        string
	Description string
	Amount      string
}

func NewClaimKey(claimType string, description string, amount decimal.Decimal) ClaimKey {
	return ClaimKey{
		Type:        strings.ToLower(strings.TrimSpace(claimType)),
		Description: strings.ToLower(strings.Join(strings.Fields(description), " ")),
		Amount:      amount.StringFixed(2),
	}
}
