package intel

// Kind identifies one category of extracted finding. The string value doubles
// as the JSON key used in report payloads.
type Kind string

const (
	KindBankAccount Kind = "bankAccounts"
	KindUpiID       Kind = "upiIds"
	KindPhoneNumber Kind = "phoneNumbers"
	KindURL         Kind = "phishingLinks"
	KindEmail       Kind = "emails"
	KindRoutingCode Kind = "ifscCodes"
	KindKeyword     Kind = "suspiciousKeywords"
)

// Kinds lists every kind in stable output order.
var Kinds = []Kind{
	KindBankAccount,
	KindUpiID,
	KindPhoneNumber,
	KindURL,
	KindEmail,
	KindRoutingCode,
	KindKeyword,
}

// actionableKinds are the kinds whose presence satisfies the reporting gate.
// Keywords and plain emails are informational only.
var actionableKinds = []Kind{KindBankAccount, KindUpiID, KindPhoneNumber, KindURL}

// Result holds the deduplicated findings from a single text blob. Each slice
// is sorted so identical inputs always produce identical results.
type Result struct {
	BankAccounts  []string
	UpiIDs        []string
	PhoneNumbers  []string
	PhishingLinks []string
	Emails        []string
	IfscCodes     []string
	Keywords      []string

	// HasIntelligence is true when any non-keyword kind is non-empty.
	HasIntelligence bool
}

// ByKind returns the result's findings keyed by kind. Nil slices are
// preserved so callers can range over Kinds without allocating.
func (r Result) ByKind() map[Kind][]string {
	return map[Kind][]string{
		KindBankAccount: r.BankAccounts,
		KindUpiID:       r.UpiIDs,
		KindPhoneNumber: r.PhoneNumbers,
		KindURL:         r.PhishingLinks,
		KindEmail:       r.Emails,
		KindRoutingCode: r.IfscCodes,
		KindKeyword:     r.Keywords,
	}
}

// Total counts findings across all kinds.
func (r Result) Total() int {
	n := 0
	for _, values := range r.ByKind() {
		n += len(values)
	}
	return n
}
