package verify

import (
	"unicode/utf8"

	"gofr.dev/spanverify/model"
)

// Attribute keys of inference spans and their events.
const (
	AttrSpanType          = "span.type"
	AttrProviderType      = "entity.1.type"
	AttrProviderName      = "entity.1.provider_name"
	AttrInferenceEndpoint = "entity.1.inference_endpoint"
	AttrModelName         = "entity.2.name"
	AttrModelType         = "entity.2.type"
	AttrModelVersion      = "entity.2.model_version"

	EventInput            = "input"
	EventResponse         = "response"
	EventPromptTokens     = "prompt_tokens"
	EventCompletionTokens = "completion_tokens"
	EventTotalTokens      = "total_tokens"
	EventFinishType       = "finish_type"
	EventFinishReason     = "finish_reason"

	SpanTypeInference          = "inference"
	SpanTypeInferenceFramework = "inference.framework"

	modelTypePrefix = "model.llm."
)

// Inference describes what an inference span is expected to report.
type Inference struct {
	// ProviderType is the expected entity.1.type, e.g. "inference.openai".
	ProviderType string
	// ModelName is the expected entity.2.name, e.g. "gpt-4".
	ModelName string
	// Endpoint is compared with entity.1.inference_endpoint only when
	// CheckEndpoint is set.
	Endpoint      string
	CheckEndpoint bool
}

// ModelType returns the entity.2.type expected for model.
func ModelType(model string) string {
	return modelTypePrefix + model
}

// InferenceSpan checks an inference span. Events are read positionally as
// the input, output and metadata events. It returns true when every check
// passes and stops at the first failing one otherwise.
func (v *Verifier) InferenceSpan(attrs model.Attributes, events []model.Event, want Inference) (bool, error) {
	r := v.reporter

	r.Logf("---------------------- Verifying inference span ------------------------")
	r.Logf("provider_type: %s, model: %s", want.ProviderType, want.ModelName)

	for _, key := range []string{AttrSpanType, AttrProviderType, AttrProviderName,
		AttrInferenceEndpoint, AttrModelName, AttrModelType, AttrModelVersion} {
		r.Logf("%s: %v", key, attrs.Value(key))
	}

	if len(events) < 3 {
		return false, failf(ErrEventCount, "expected at least 3 events (input, output, metadata), got %d", len(events))
	}

	input, output, metadata := events[0].Attributes, events[1].Attributes, events[2].Attributes

	r.Logf("span_events: %d events found", len(events))

	switch spanType := attrs.Value(AttrSpanType); spanType {
	case SpanTypeInference, SpanTypeInferenceFramework:
		r.Logf("Span type verified: %v", spanType)
	default:
		return false, failf(ErrAttribute, "expected %s to be %q or %q, got %v",
			AttrSpanType, SpanTypeInference, SpanTypeInferenceFramework, spanType)
	}

	if err := equal(attrs, AttrProviderType, want.ProviderType); err != nil {
		return false, err
	}

	r.Logf("Provider type verified: %s", want.ProviderType)

	for _, key := range []string{AttrProviderName, AttrInferenceEndpoint} {
		if !attrs.Has(key) {
			return false, failf(ErrAttribute, "missing %s attribute", key)
		}

		r.Logf("%s found: %v", key, attrs.Value(key))
	}

	if want.CheckEndpoint {
		if err := equal(attrs, AttrInferenceEndpoint, want.Endpoint); err != nil {
			return false, err
		}

		r.Logf("Endpoint matches expected: %s", want.Endpoint)
	}

	if err := equal(attrs, AttrModelName, want.ModelName); err != nil {
		return false, err
	}

	r.Logf("Model name verified: %s", want.ModelName)

	if err := equal(attrs, AttrModelType, ModelType(want.ModelName)); err != nil {
		return false, err
	}

	r.Logf("Model type verified: %s", ModelType(want.ModelName))

	if err := nonEmpty(input, EventInput, "span input event"); err != nil {
		return false, err
	}

	r.Logf("Input event verified with %d characters", utf8.RuneCountInString(input.String(EventInput)))

	if err := nonEmpty(output, EventResponse, "span output event"); err != nil {
		return false, err
	}

	r.Logf("Output event verified with %d characters", utf8.RuneCountInString(output.String(EventResponse)))

	for _, key := range []string{EventPromptTokens, EventCompletionTokens, EventTotalTokens} {
		if !metadata.Has(key) {
			return false, failf(ErrTokenUsage, "missing %q in metadata", key)
		}
	}

	r.Logf("Token metadata verified - prompt: %v, completion: %v, total: %v",
		metadata.Value(EventPromptTokens), metadata.Value(EventCompletionTokens), metadata.Value(EventTotalTokens))

	for _, key := range []string{EventFinishType, EventFinishReason} {
		if val, ok := metadata.Lookup(key); ok {
			r.Logf("%s found: %v", key, val)
		}
	}

	r.Logf("All inference span verifications passed")

	return true, nil
}

func equal(attrs model.Attributes, key, want string) error {
	got, ok := attrs.Lookup(key)
	if s, isString := got.(string); !ok || !isString || s != want {
		return failf(ErrAttribute, "expected %s to be %q, got %v", key, want, got)
	}

	return nil
}

func nonEmpty(attrs model.Attributes, key, where string) error {
	if !attrs.Has(key) {
		return failf(ErrAttribute, "missing %q in %s", key, where)
	}

	if !attrs.NonEmpty(key) {
		return failf(ErrEmptyValue, "%s attribute in %s is empty or nil", key, where)
	}

	return nil
}
