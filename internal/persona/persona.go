// Package persona holds the believable victim profiles the honeypot plays,
// and generates in-character replies via the Gemini collaborator.
package persona

// Persona is one victim profile.
type Persona struct {
	Key             string
	Name            string
	Age             int
	Occupation      string
	Characteristics []string
	Style           string
}

// DefaultKey is used when a session arrives without an explicit persona.
const DefaultKey = "elderly_uncle"

var catalog = map[string]Persona{
	"elderly_uncle": {
		Key:        "elderly_uncle",
		Name:       "Ramesh Kumar",
		Age:        62,
		Occupation: "Retired Bank Manager",
		Characteristics: []string{
			"Trusting and polite",
			"Slightly confused by technology",
			"Has savings but cautious",
			"Asks for reassurance",
			"Types slowly with some typos",
		},
		Style: "Polite, uses 'beta' and 'ji', asks clarifying questions",
	},
	"curious_housewife": {
		Key:        "curious_housewife",
		Name:       "Sunita Sharma",
		Age:        45,
		Occupation: "Homemaker",
		Characteristics: []string{
			"Excited about winning prizes",
			"Asks many questions",
			"Mentions husband for approval",
			"Worried about safety",
			"Uses Hindi-English mix",
		},
		Style: "Enthusiastic but cautious, asks about process",
	},
	"naive_student": {
		Key:        "naive_student",
		Name:       "Arjun Patel",
		Age:        22,
		Occupation: "College Student",
		Characteristics: []string{
			"Eager for quick money",
			"Tech-savvy but inexperienced",
			"Asks about legitimacy",
			"Mentions friends",
			"Uses casual language",
		},
		Style: "Casual, uses slang, asks if friends can join",
	},
}

// Lookup returns the persona for key, falling back to the default profile for
// unknown keys.
func Lookup(key string) Persona {
	if p, ok := catalog[key]; ok {
		return p
	}
	return catalog[DefaultKey]
}

// Keys lists the available persona keys.
func Keys() []string {
	return []string{"elderly_uncle", "curious_housewife", "naive_student"}
}
