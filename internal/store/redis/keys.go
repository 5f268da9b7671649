package redis

const (
	// KeyCatalog is the hash of filename -> resource JSON.
	KeyCatalog = "mirror:catalog"
	// KeyVersionMetas is the hash of meta key -> suggested version.
	KeyVersionMetas = "mirror:versions"
	// KeySchedulerLastRun / KeySchedulerNextRun record scrape cycle times.
	KeySchedulerLastRun = "mirror:scheduler:last_run"
	KeySchedulerNextRun = "mirror:scheduler:next_run"
)
