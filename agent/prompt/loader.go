package prompt

import (
	_ "embed"
	"strings"

	contractx "github.com/voxline/voxline/agent/contract"
)

var (
	//go:embed template/system.txt
	systemRaw string

	//go:embed template/greeting.txt
	greetingRaw string

	//go:embed template/greeting_unknown.txt
	greetingUnknownRaw string

	//go:embed template/voicemail.txt
	voicemailRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	System          string
	Greeting        string
	GreetingUnknown string
	Voicemail       string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		System:          strings.TrimSpace(systemRaw),
		Greeting:        strings.TrimSpace(greetingRaw),
		GreetingUnknown: strings.TrimSpace(greetingUnknownRaw),
		Voicemail:       strings.TrimSpace(voicemailRaw),
	}
}

// GreetingFor fills the greeting template for a known customer, or falls
// back to the identification request when no metadata arrived with the job.
func (p PromptSet) GreetingFor(customer *contractx.CustomerRecord) string {
	if customer == nil {
		return p.GreetingUnknown
	}
	r := strings.NewReplacer(
		"{name}", valueOr(customer.Name, "not found"),
		"{address}", valueOr(customer.Address, "not found"),
	)
	return r.Replace(p.Greeting)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
