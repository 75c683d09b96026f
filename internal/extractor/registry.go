package extractor

// Registry holds registered extractors in priority order.
type Registry struct {
	extractors []Extractor
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an extractor. Earlier registrations win on Match.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Match returns the first extractor matching the URL, or nil.
func (r *Registry) Match(url string) Extractor {
	for _, e := range r.extractors {
		if e.Match(url) {
			return e
		}
	}
	return nil
}

// Extractors returns all registered extractors.
func (r *Registry) Extractors() []Extractor {
	return r.extractors
}
