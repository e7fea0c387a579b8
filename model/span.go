package model

// Span is a captured span as the verifiers read it. It is the JSON shape
// spans travel in between the capture exporter, the receiver and the archive.
type Span struct {
	TraceID    string     `json:"traceId"`
	ID         string     `json:"id"`
	ParentID   string     `json:"parentId,omitempty"`
	Name       string     `json:"name"`
	Timestamp  int64      `json:"timestamp"`
	Duration   int64      `json:"duration"`
	Attributes Attributes `json:"attributes,omitempty"`
	Resource   Attributes `json:"resource,omitempty"`
	Events     []Event    `json:"events,omitempty"`
}

// Event is a named record attached to a span.
type Event struct {
	Name       string     `json:"name"`
	Timestamp  int64      `json:"timestamp"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// Traces groups spans by trace id, keeping the order in which each trace id
// was first seen.
func Traces(spans []Span) (ids []string, byID map[string][]Span) {
	byID = make(map[string][]Span)

	for _, s := range spans {
		if _, ok := byID[s.TraceID]; !ok {
			ids = append(ids, s.TraceID)
		}

		byID[s.TraceID] = append(byID[s.TraceID], s)
	}

	return ids, byID
}
