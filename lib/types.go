package lib

// APIInfection is one reported event. Start and End are character offsets
// into the document text.
type APIInfection struct {
	Text            string   `json:"text"`
	Start           int      `json:"start"`
	End             int      `json:"end"`
	Sentence        int      `json:"sentence"`
	Attributes      []string `json:"attributes"`
	Count           int      `json:"count"`
	DebugAttributes []string `json:"debug_attributes,omitempty"`
}

// APIAnnotation holds the infections found in one document. Digest identifies
// the raw document it was computed from.
type APIAnnotation struct {
	Digest     string          `json:"digest"`
	Infections []*APIInfection `json:"infections"`
	Cached     bool            `json:"cached,omitempty"`
}

type AnnotateOptions struct {
	Debug bool `json:"debug"`
	// NoCache skips the cache lookup; results are still stored.
	NoCache bool `json:"no_cache"`
}
