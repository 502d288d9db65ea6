package intel

// Set is the cumulative, per-session union of findings across all
// counterparty turns. It grows monotonically: values are only ever added.
type Set map[Kind]map[string]bool

// NewSet returns an empty Set with every kind initialized.
func NewSet() Set {
	s := make(Set, len(Kinds))
	for _, k := range Kinds {
		s[k] = make(map[string]bool)
	}
	return s
}

// Merge unions one extraction result into the set. Merging the same result
// twice is a no-op beyond the first merge.
func (s Set) Merge(r Result) {
	for kind, values := range r.ByKind() {
		for _, v := range values {
			s[kind][v] = true
		}
	}
}

// Values returns the sorted findings for one kind.
func (s Set) Values(kind Kind) []string {
	return sorted(s[kind])
}

// Has reports whether the set contains the given value under kind.
func (s Set) Has(kind Kind, value string) bool {
	return s[kind][value]
}

// Count returns the total number of findings across all kinds.
func (s Set) Count() int {
	n := 0
	for _, values := range s {
		n += len(values)
	}
	return n
}

// HasActionable reports whether any reportable kind (bank account, UPI handle,
// phone number, phishing link) is non-empty. This is the evidence condition of
// the reporting gate.
func (s Set) HasActionable() bool {
	for _, k := range actionableKinds {
		if len(s[k]) > 0 {
			return true
		}
	}
	return false
}

// AsLists renders the set as a JSON-ready mapping of kind to sorted values.
// Every kind is present, empty kinds as empty lists.
func (s Set) AsLists() map[string][]string {
	out := make(map[string][]string, len(Kinds))
	for _, k := range Kinds {
		values := sorted(s[k])
		if values == nil {
			values = []string{}
		}
		out[string(k)] = values
	}
	return out
}

// Clone returns an independent deep copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for kind, values := range s {
		copied := make(map[string]bool, len(values))
		for v := range values {
			copied[v] = true
		}
		out[kind] = copied
	}
	return out
}
