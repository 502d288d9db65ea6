// Package intel turns unstructured scam-message text into typed, deduplicated
// findings: bank accounts, UPI handles, phone numbers, phishing links, emails,
// IFSC codes and suspicious keywords.
package intel

import (
	"sort"
	"strings"
)

// Extract runs every recognizer over text and returns the deduplicated
// findings per kind. It is total: malformed or empty input yields an empty
// result, never an error.
func Extract(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}

	r := Result{
		BankAccounts:  extractBankAccounts(text),
		UpiIDs:        extractUpiIDs(text),
		PhoneNumbers:  extractPhoneNumbers(text),
		PhishingLinks: extractURLs(text),
		Emails:        extractEmails(text),
		IfscCodes:     extractIfscCodes(text),
		Keywords:      extractKeywords(text),
	}

	r.HasIntelligence = len(r.BankAccounts) > 0 ||
		len(r.UpiIDs) > 0 ||
		len(r.PhoneNumbers) > 0 ||
		len(r.PhishingLinks) > 0 ||
		len(r.Emails) > 0 ||
		len(r.IfscCodes) > 0

	return r
}

// extractBankAccounts finds 9-18 digit runs. A 10-digit run starting with 6-9
// is dropped as a likely phone number. Genuine 10-digit accounts starting with
// 6-9 are therefore silently misclassified; the phone recognizer picks them up
// instead.
func extractBankAccounts(text string) []string {
	matches := bankAccountRe.FindAllString(text, -1)

	seen := make(map[string]bool)
	for _, m := range matches {
		if len(m) == 10 && m[0] >= '6' && m[0] <= '9' {
			continue
		}
		seen[m] = true
	}
	return sorted(seen)
}

// extractUpiIDs finds local@provider handles, excluding common email providers
// so that plain addresses like someone@gmail do not count as payment handles.
func extractUpiIDs(text string) []string {
	matches := upiRe.FindAllString(text, -1)

	seen := make(map[string]bool)
	for _, m := range matches {
		at := strings.LastIndex(m, "@")
		domain := strings.ToLower(m[at+1:])
		if emailProviders[domain] {
			continue
		}
		seen[m] = true
	}
	return sorted(seen)
}

// extractPhoneNumbers finds Indian mobile numbers and normalizes each match to
// its bare 10 digits (country prefix, spaces and hyphens stripped).
func extractPhoneNumbers(text string) []string {
	matches := phoneRe.FindAllString(text, -1)

	seen := make(map[string]bool)
	for _, m := range matches {
		digits := phonePrefixRe.ReplaceAllString(m, "")
		if strings.HasPrefix(digits, "91") && len(digits) > 10 {
			digits = digits[2:]
		}
		if len(digits) == 10 {
			seen[digits] = true
		}
	}
	return sorted(seen)
}

func extractURLs(text string) []string {
	seen := make(map[string]bool)
	for _, m := range urlRe.FindAllString(text, -1) {
		seen[m] = true
	}
	for _, m := range shortURLRe.FindAllString(text, -1) {
		seen[m] = true
	}
	return sorted(seen)
}

func extractEmails(text string) []string {
	seen := make(map[string]bool)
	for _, m := range emailRe.FindAllString(text, -1) {
		seen[m] = true
	}
	return sorted(seen)
}

func extractIfscCodes(text string) []string {
	seen := make(map[string]bool)
	for _, m := range ifscRe.FindAllString(text, -1) {
		seen[m] = true
	}
	return sorted(seen)
}

// extractKeywords matches the canonical phrase list case-insensitively and
// dedupes by phrase, not by occurrence.
func extractKeywords(text string) []string {
	lower := strings.ToLower(text)

	seen := make(map[string]bool)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			seen[kw] = true
		}
	}
	return sorted(seen)
}

func sorted(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
