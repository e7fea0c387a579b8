package verify

import (
	"fmt"
	"io"
	"strings"

	"gofr.dev/spanverify/model"
)

const previewLen = 100

// PrintInferenceSummary writes a readable dump of an inference span to w.
// It performs no checks and tolerates missing attributes and events.
func PrintInferenceSummary(w io.Writer, attrs model.Attributes, events []model.Event, want Inference) error {
	rule := strings.Repeat("=", 80)

	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\nINFERENCE SPAN ATTRIBUTES\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Expected Provider: %s, Model: %s\n", want.ProviderType, want.ModelName)

	for _, key := range []string{AttrSpanType, AttrProviderType, AttrProviderName,
		AttrInferenceEndpoint, AttrModelName, AttrModelType, AttrModelVersion} {
		fmt.Fprintf(&b, "%s: %v\n", key, attrs.Value(key))
	}

	fmt.Fprintf(&b, "\nEVENTS (%d found)\n%s\n", len(events), strings.Repeat("-", 80))

	var input, output, metadata model.Attributes
	if len(events) > 0 {
		input = events[0].Attributes
	}

	if len(events) > 1 {
		output = events[1].Attributes
	}

	if len(events) > 2 {
		metadata = events[2].Attributes
	}

	fmt.Fprintf(&b, "Input: %s\n", preview(input.String(EventInput)))
	fmt.Fprintf(&b, "Response: %s\n", preview(output.String(EventResponse)))
	b.WriteString("Token Metadata:\n")
	fmt.Fprintf(&b, "  - Prompt tokens: %v\n", metadata.Value(EventPromptTokens))
	fmt.Fprintf(&b, "  - Completion tokens: %v\n", metadata.Value(EventCompletionTokens))
	fmt.Fprintf(&b, "  - Total tokens: %v\n", metadata.Value(EventTotalTokens))

	if v, ok := metadata.Lookup(EventFinishType); ok {
		fmt.Fprintf(&b, "  - Finish type: %v\n", v)
	}

	if v, ok := metadata.Lookup(EventFinishReason); ok {
		fmt.Fprintf(&b, "  - Finish reason: %v\n", v)
	}

	fmt.Fprintf(&b, "%s\n\n", rule)

	_, err := io.WriteString(w, b.String())

	return err
}

// preview cuts s to previewLen characters.
func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "..."
	}

	return s
}
