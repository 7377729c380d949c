package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Values(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.Tuning.MinROI != 10 || c.Tuning.MaxROI != 300 {
		t.Errorf("ROI band = [%v, %v], want [10, 300]", c.Tuning.MinROI, c.Tuning.MaxROI)
	}
	if c.Tuning.TopCandidates != 300 {
		t.Errorf("TopCandidates = %d, want 300", c.Tuning.TopCandidates)
	}
	if c.Tuning.StalePriceFactor != 3 {
		t.Errorf("StalePriceFactor = %v, want 3", c.Tuning.StalePriceFactor)
	}
	if c.Tuning.EmptyMarketMarkup != 2 {
		t.Errorf("EmptyMarketMarkup = %v, want 2", c.Tuning.EmptyMarketMarkup)
	}
	if c.Tuning.ReferenceDepth != 50 {
		t.Errorf("ReferenceDepth = %d, want 50", c.Tuning.ReferenceDepth)
	}
	if c.Tuning.HistoryWindow != 30 {
		t.Errorf("HistoryWindow = %d, want 30", c.Tuning.HistoryWindow)
	}
	if c.ESI.PageWorkers != 20 {
		t.Errorf("PageWorkers = %d, want 20", c.ESI.PageWorkers)
	}
	if c.ESI.OrdersTimeout != 10*time.Second || c.ESI.HistoryTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v, want 10s/5s", c.ESI.OrdersTimeout, c.ESI.HistoryTimeout)
	}
	if c.Loop.Tick != time.Second {
		t.Errorf("Tick = %v, want 1s", c.Loop.Tick)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad log level":     func(c *Config) { c.LogLevel = "loud" },
		"zero workers":      func(c *Config) { c.ESI.PageWorkers = 0 },
		"inverted roi band": func(c *Config) { c.Tuning.MaxROI = 5 },
		"max below min":     func(c *Config) { c.Scan.Velocity.MaxPrice = 1 },
		"zero interval":     func(c *Config) { c.Loop.IntervalMinutes = 0 },
		"bucket no region":  func(c *Config) { c.S3.Bucket = "snapshots" },
		"telegram no chat":  func(c *Config) { c.Notify.TelegramToken = "123:abc" },
		"bad redis addr":    func(c *Config) { c.Redis.Addr = "not an addr" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arbscan.toml")
	body := `
log_level = "debug"

[esi]
page_workers = 8
orders_timeout = "15s"

[scan.import]
hub = "Amarr VIII (Domain)"
min_roi = 45.5

[loop]
repeat = true
interval_minutes = 3
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ARBSCAN_LOOP_INTERVAL_MINUTES", "7")
	t.Setenv("ARBSCAN_REPORTS_DIR", "/tmp/snaps")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", c.LogLevel)
	}
	if c.ESI.PageWorkers != 8 || c.ESI.OrdersTimeout != 15*time.Second {
		t.Errorf("ESI = %+v", c.ESI)
	}
	if c.ESI.HistoryTimeout != 5*time.Second {
		t.Errorf("HistoryTimeout = %v, default should survive", c.ESI.HistoryTimeout)
	}
	if c.Scan.Import.Hub != "Amarr VIII (Domain)" || c.Scan.Import.MinROI != 45.5 {
		t.Errorf("Import = %+v", c.Scan.Import)
	}
	if !c.Loop.Repeat || c.Loop.IntervalMinutes != 7 {
		t.Errorf("Loop = %+v, env should win over file", c.Loop)
	}
	if c.Reports.Dir != "/tmp/snaps" {
		t.Errorf("Reports.Dir = %q", c.Reports.Dir)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("ARBSCAN_ESI_BURST", "many")
	if _, err := Load(""); err == nil {
		t.Error("Load with non-numeric burst: want error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load(missing) want error")
	}
}
