package intel

import "regexp"

// Recognizer patterns. Each runs independently over the full input; overlaps
// are resolved by exclusion filters in the extraction functions, never by
// matcher priority.
var (
	// Indian bank account numbers are 9-18 digit runs.
	bankAccountRe = regexp.MustCompile(`\b\d{9,18}\b`)

	// UPI handle: local-part@provider where the provider token is alphabetic.
	upiRe = regexp.MustCompile(`\b[a-zA-Z0-9._-]+@[a-zA-Z]{2,}\b`)

	// Indian mobile numbers: optional +91/91 prefix, then 10 digits starting 6-9.
	phoneRe = regexp.MustCompile(`(?:\+91[\-\s]?|91[\-\s]?)?[6-9]\d{9}\b`)

	phonePrefixRe = regexp.MustCompile(`[+\s\-]`)

	urlRe = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+|www\.[^\s<>"{}|\\^` + "`" + `\[\]]+`)

	// Shortener hosts that show up constantly in scam messages.
	shortURLRe = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|buff\.ly|ow\.ly|rebrand\.ly)/[a-zA-Z0-9]+\b`)

	emailRe = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// IFSC: 4 letters, literal 0, 6 alphanumeric (e.g. SBIN0001234).
	ifscRe = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
)

// emailProviders excludes plain email handles from the UPI recognizer.
var emailProviders = map[string]bool{
	"gmail":   true,
	"yahoo":   true,
	"hotmail": true,
	"outlook": true,
	"proton":  true,
	"mail":    true,
}

// suspiciousKeywords is the canonical phrase list for the Keyword recognizer.
// Matches are case-insensitive; results are deduped by canonical phrase.
var suspiciousKeywords = []string{
	"urgent",
	"verify now",
	"account blocked",
	"KYC",
	"OTP",
	"lottery",
	"winner",
	"prize",
	"blocked",
	"suspended",
	"immediately",
	"verify",
	"click here",
	"link",
	"expire",
}
