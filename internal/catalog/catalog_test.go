package catalog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
)

func TestUpsertAndGetByFilename(t *testing.T) {
	c := New()

	res := domain.Resource{
		FileName:  "nginx-1.27.0.tar.gz",
		URL:       "https://nginx.org/download/nginx-1.27.0.tar.gz",
		Version:   "1.27.0",
		Source:    "nginx",
		UpdatedAt: time.Now(),
	}
	c.Upsert(res)

	got, ok := c.GetByFilename("nginx-1.27.0.tar.gz")
	if !ok {
		t.Fatal("GetByFilename() did not find upserted resource")
	}
	if got.URL != res.URL || got.Version != res.Version || got.Source != res.Source {
		t.Errorf("GetByFilename() = %+v, want %+v", got, res)
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	c := New()

	c.Upsert(domain.Resource{FileName: "redis-7.4.0.tar.gz", URL: "https://old.example.com", Source: "redis", Version: "7.4.0"})
	c.Upsert(domain.Resource{FileName: "redis-7.4.0.tar.gz", URL: "https://new.example.com", Source: "redis", Version: "7.4.0"})

	got, ok := c.GetByFilename("redis-7.4.0.tar.gz")
	if !ok {
		t.Fatal("resource not found")
	}
	if got.URL != "https://new.example.com" {
		t.Errorf("Upsert() should overwrite, got URL %q", got.URL)
	}
	if c.Count() != 1 {
		t.Errorf("Count() = %d, want 1", c.Count())
	}
}

func TestGetByFilenameUnknown(t *testing.T) {
	c := New()
	if _, ok := c.GetByFilename("no-such-file.tar.gz"); ok {
		t.Error("GetByFilename() found a record in an empty catalog")
	}
}

func TestLatestPicksHighestVersion(t *testing.T) {
	c := New()
	for _, v := range []string{"8.1.0", "8.3.2", "8.2.9"} {
		c.Upsert(domain.Resource{
			FileName: fmt.Sprintf("php-%s.tar.gz", v),
			Version:  v,
			Source:   "php",
		})
	}

	got, ok := c.Latest("php")
	if !ok {
		t.Fatal("Latest() found nothing")
	}
	if got.Version != "8.3.2" {
		t.Errorf("Latest() version = %q, want 8.3.2", got.Version)
	}
}

func TestLatestMissingVersionSortsLowest(t *testing.T) {
	c := New()
	c.Upsert(domain.Resource{FileName: "tool-latest.tar.gz", Version: "", Source: "tool"})
	c.Upsert(domain.Resource{FileName: "tool-0.1.tar.gz", Version: "0.1", Source: "tool"})

	got, _ := c.Latest("tool")
	if got.Version != "0.1" {
		t.Errorf("Latest() version = %q, want 0.1", got.Version)
	}
}

func TestLatestTieBreaksOnUpdatedAt(t *testing.T) {
	c := New()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	c.Upsert(domain.Resource{FileName: "php-8.3.2.tar.gz", Version: "8.3.2", Source: "php", UpdatedAt: older})
	c.Upsert(domain.Resource{FileName: "php-8.3.2.tar.xz", Version: "8.3.2", Source: "php", UpdatedAt: newer})

	got, _ := c.Latest("php")
	if got.FileName != "php-8.3.2.tar.xz" {
		t.Errorf("Latest() = %q, want the more recently updated record", got.FileName)
	}
}

func TestLatestUnknownSource(t *testing.T) {
	c := New()
	if _, ok := c.Latest("nope"); ok {
		t.Error("Latest() on unknown source should report not found")
	}
}

func TestListBySource(t *testing.T) {
	c := New()
	c.Upsert(domain.Resource{FileName: "nginx-1.26.0.tar.gz", Version: "1.26.0", Source: "nginx"})
	c.Upsert(domain.Resource{FileName: "nginx-1.27.0.tar.gz", Version: "1.27.0", Source: "nginx"})
	c.Upsert(domain.Resource{FileName: "redis-7.4.0.tar.gz", Version: "7.4.0", Source: "redis"})

	got := c.ListBySource("nginx")
	if len(got) != 2 {
		t.Fatalf("ListBySource() returned %d records, want 2", len(got))
	}
	if got[0].Version != "1.27.0" {
		t.Errorf("ListBySource() should order highest version first, got %q", got[0].Version)
	}
}

func TestListAllAndSources(t *testing.T) {
	c := New()
	c.Upsert(domain.Resource{FileName: "b.tar.gz", Source: "redis"})
	c.Upsert(domain.Resource{FileName: "a.tar.gz", Source: "nginx"})

	all := c.ListAll()
	if len(all) != 2 {
		t.Fatalf("ListAll() = %d records, want 2", len(all))
	}
	if all[0].Source != "nginx" {
		t.Errorf("ListAll() should order by source, got %q first", all[0].Source)
	}

	sources := c.Sources()
	if len(sources) != 2 || sources[0] != "nginx" || sources[1] != "redis" {
		t.Errorf("Sources() = %v, want [nginx redis]", sources)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Upsert(domain.Resource{
				FileName: fmt.Sprintf("pkg-%d.tar.gz", n),
				Source:   "pkg",
			})
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.ListAll()
			_, _ = c.Latest("pkg")
		}()
	}
	wg.Wait()

	if c.Count() != 50 {
		t.Errorf("Count() = %d after concurrent upserts, want 50", c.Count())
	}
}
