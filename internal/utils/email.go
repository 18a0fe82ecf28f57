package utils

import (
	"strings"
)

// GetDomainFromEmail extracts the domain part from an email address
func GetDomainFromEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// DeriveRecipientAddress builds a guessed address for a generated
// email: the recipient name at the organization's compacted domain.
func DeriveRecipientAddress(name, organization string) string {
	domain := strings.ReplaceAll(strings.ToLower(organization), " ", "")
	return name + "@" + domain + ".com"
}
