package upstreams

// Definitions is the top-level structure of upstreams.yaml, the definition
// file for upstreams simple enough to be scraped by the generic
// GitHub-tag adapter instead of a hand-written one.
type Definitions struct {
	Upstreams []Definition `yaml:"upstreams"`
}

// Definition describes one GitHub-backed upstream.
type Definition struct {
	// Name is the adapter/registry name, e.g. "htop".
	Name string `yaml:"name"`

	// Owner and Repo identify the GitHub repository.
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// MaxTags limits how many stable tags are catalogued (0 = all).
	MaxTags int `yaml:"max_tags,omitempty"`

	// MetaKey, when set, emits a suggest_versions entry for the newest
	// tag, e.g. "htop_ver".
	MetaKey string `yaml:"meta_key,omitempty"`
}
