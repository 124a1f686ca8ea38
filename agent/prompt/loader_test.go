package prompt

import (
	"strings"
	"testing"

	contractx "github.com/voxline/voxline/agent/contract"
)

func TestLoadPromptSetNonEmpty(t *testing.T) {
	t.Parallel()

	prompts := LoadPromptSet()
	if prompts.System == "" || prompts.Greeting == "" || prompts.GreetingUnknown == "" || prompts.Voicemail == "" {
		t.Fatalf("prompt set has empty entries: %+v", prompts)
	}
}

func TestGreetingForFillsCustomerDetails(t *testing.T) {
	t.Parallel()

	prompts := PromptSet{
		Greeting:        "Greet {name} and confirm {address}.",
		GreetingUnknown: "Ask who is speaking.",
	}
	got := prompts.GreetingFor(&contractx.CustomerRecord{
		Name:    "Asha Rao",
		Address: "12 Lake Road",
	})
	if got != "Greet Asha Rao and confirm 12 Lake Road." {
		t.Fatalf("greeting = %q", got)
	}
}

func TestGreetingForMissingValuesFallBack(t *testing.T) {
	t.Parallel()

	prompts := PromptSet{
		Greeting:        "Greet {name} and confirm {address}.",
		GreetingUnknown: "Ask who is speaking.",
	}
	got := prompts.GreetingFor(&contractx.CustomerRecord{Name: "  "})
	if !strings.Contains(got, "not found") {
		t.Fatalf("greeting = %q, want the not-found placeholder", got)
	}
}

func TestGreetingForNilCustomerUsesIdentificationPrompt(t *testing.T) {
	t.Parallel()

	prompts := PromptSet{
		Greeting:        "Greet {name}.",
		GreetingUnknown: "Ask who is speaking.",
	}
	if got := prompts.GreetingFor(nil); got != "Ask who is speaking." {
		t.Fatalf("greeting = %q", got)
	}
}
