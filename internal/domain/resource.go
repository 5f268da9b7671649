package domain

import "time"

// MirrorMode decides how an inbound file request is answered.
type MirrorMode string

const (
	// ModeRedirect answers with a 302 to the upstream URL.
	ModeRedirect MirrorMode = "redirect"
	// ModeCache serves a locally cached copy, filling the cache on demand.
	ModeCache MirrorMode = "cache"
)

// ParseMirrorMode maps a settings value to a MirrorMode, defaulting to redirect.
func ParseMirrorMode(s string) MirrorMode {
	if s == string(ModeCache) {
		return ModeCache
	}
	return ModeRedirect
}

// Resource is one catalogued downloadable artifact.
//
// FileName is the primary lookup key across the entire catalog: inbound
// requests carry a filename and nothing else. Source groups versions of one
// product (e.g. "nginx", "php") and is also used as the cache subdirectory.
type Resource struct {
	// FileName is the canonical artifact name, globally unique in the
	// catalog (last write wins on collision).
	FileName string `json:"file_name"`

	// URL is the authoritative upstream download location.
	URL string `json:"url"`

	// Version is a normalized dot-separated version string. Empty for
	// non-versioned artifacts (e.g. cacert.pem), which sort lowest.
	Version string `json:"version"`

	// Source is the adapter/package family that produced this record.
	Source string `json:"source"`

	// Checksum as published by upstream, if any. Never verified here.
	Checksum     string `json:"checksum,omitempty"`
	ChecksumType string `json:"checksum_type,omitempty"`

	// UpdatedAt is the time of the last successful scrape observation.
	UpdatedAt time.Time `json:"updated_at"`
}

// VersionMeta is one suggested-version entry rendered into
// suggest_versions.txt, e.g. key "php83_ver" -> "8.3.2".
type VersionMeta struct {
	Key     string `json:"key"`
	Version string `json:"version"`
}

// ScrapeStatus classifies the outcome of one adapter run.
type ScrapeStatus string

const (
	StatusSuccess ScrapeStatus = "success"
	StatusPartial ScrapeStatus = "partial"
	StatusFailed  ScrapeStatus = "failed"
)

// ScrapeResult is the transient output of one adapter invocation. It is
// merged into the catalog and summarized into a ScrapeLog; never persisted
// as-is.
type ScrapeResult struct {
	AdapterName  string
	Success      bool
	Resources    []Resource
	VersionMetas []VersionMeta
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Status derives the ScrapeLog status: failed when the adapter itself
// reported failure, partial when it succeeded but produced nothing (likely
// an upstream shape change), success otherwise.
func (r ScrapeResult) Status() ScrapeStatus {
	switch {
	case !r.Success:
		return StatusFailed
	case len(r.Resources) == 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

// Duration of the adapter run. Zero until FinishedAt is set.
func (r ScrapeResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ScrapeLog is one append-only row recording an adapter run.
type ScrapeLog struct {
	ID             int64         `json:"id"`
	AdapterName    string        `json:"adapter_name"`
	Status         ScrapeStatus  `json:"status"`
	ResourcesCount int           `json:"resources_count"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Duration       time.Duration `json:"duration"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// NewScrapeLog summarizes a ScrapeResult into a log row.
func NewScrapeLog(r ScrapeResult) ScrapeLog {
	return ScrapeLog{
		AdapterName:    r.AdapterName,
		Status:         r.Status(),
		ResourcesCount: len(r.Resources),
		ErrorMessage:   r.Error,
		Duration:       r.Duration(),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}
