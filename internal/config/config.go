package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		CardGorilla
		Collector
		DailyCollect
		WeeklyCollect
		MonthlyCollect
		Scraper
		Global
		Database
		Tasks
		Output
	}

	HTTP struct {
		Port int32
		Host string
	}
	CardGorilla struct {
		BaseURL        string
		RequestTimeout time.Duration
		RetryAttempts  int
		RetryDelay     time.Duration
	}
	Collector struct {
		ItemDelay     time.Duration
		ListItemDelay time.Duration
		PageDelay     time.Duration
	}
	DailyCollect struct {
		Enabled  bool
		Schedule string // Cron format: "0 9 * * *" = daily at 09:00
		Limit    int
	}
	WeeklyCollect struct {
		Enabled  bool
		Schedule string // Cron format: "0 10 * * 1" = Monday at 10:00
		Limit    int
	}
	MonthlyCollect struct {
		Enabled  bool
		Schedule string // Cron format: "0 11 1 * *" = 1st of month at 11:00
		Limit    int
	}
	Scraper struct {
		Headless   bool
		UserAgent  string
		NavTimeout time.Duration
		ToggleWait time.Duration
		DetailURL  string
		MaxScrolls int
		ScrollStep int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Output struct {
		Dir string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("output_dir", DefaultOutputDir)

	// Upstream API defaults
	v.SetDefault("card_gorilla_base_url", "https://api.card-gorilla.com:8080/v1")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("retry_delay", "1s")

	// Pacing defaults
	v.SetDefault("item_delay", "100ms")
	v.SetDefault("list_item_delay", "50ms")
	v.SetDefault("page_delay", "500ms")

	// Scheduled collection defaults
	v.SetDefault("daily_collect_enabled", false)
	v.SetDefault("daily_collect_schedule", "0 9 * * *") // Daily at 09:00
	v.SetDefault("daily_collect_limit", 100)
	v.SetDefault("weekly_collect_enabled", false)
	v.SetDefault("weekly_collect_schedule", "0 10 * * 1") // Monday at 10:00
	v.SetDefault("weekly_collect_limit", 200)
	v.SetDefault("monthly_collect_enabled", false)
	v.SetDefault("monthly_collect_schedule", "0 11 1 * *") // 1st of month at 11:00
	v.SetDefault("monthly_collect_limit", 500)

	// Scraper defaults
	v.SetDefault("scraper_headless", true)
	v.SetDefault("scraper_user_agent", "")
	v.SetDefault("scraper_nav_timeout", "60s")
	v.SetDefault("scraper_toggle_wait", "5s")
	v.SetDefault("scraper_detail_url", "https://www.card-gorilla.com/card/detail/%d")
	v.SetDefault("scraper_max_scrolls", 60)
	v.SetDefault("scraper_scroll_step", 600)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		CardGorilla: CardGorilla{
			BaseURL:        v.GetString("CARD_GORILLA_BASE_URL"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
			RetryAttempts:  v.GetInt("RETRY_ATTEMPTS"),
			RetryDelay:     v.GetDuration("RETRY_DELAY"),
		},
		Collector: Collector{
			ItemDelay:     v.GetDuration("ITEM_DELAY"),
			ListItemDelay: v.GetDuration("LIST_ITEM_DELAY"),
			PageDelay:     v.GetDuration("PAGE_DELAY"),
		},
		DailyCollect: DailyCollect{
			Enabled:  v.GetBool("DAILY_COLLECT_ENABLED"),
			Schedule: v.GetString("DAILY_COLLECT_SCHEDULE"),
			Limit:    v.GetInt("DAILY_COLLECT_LIMIT"),
		},
		WeeklyCollect: WeeklyCollect{
			Enabled:  v.GetBool("WEEKLY_COLLECT_ENABLED"),
			Schedule: v.GetString("WEEKLY_COLLECT_SCHEDULE"),
			Limit:    v.GetInt("WEEKLY_COLLECT_LIMIT"),
		},
		MonthlyCollect: MonthlyCollect{
			Enabled:  v.GetBool("MONTHLY_COLLECT_ENABLED"),
			Schedule: v.GetString("MONTHLY_COLLECT_SCHEDULE"),
			Limit:    v.GetInt("MONTHLY_COLLECT_LIMIT"),
		},
		Scraper: Scraper{
			Headless:   v.GetBool("SCRAPER_HEADLESS"),
			UserAgent:  v.GetString("SCRAPER_USER_AGENT"),
			NavTimeout: v.GetDuration("SCRAPER_NAV_TIMEOUT"),
			ToggleWait: v.GetDuration("SCRAPER_TOGGLE_WAIT"),
			DetailURL:  v.GetString("SCRAPER_DETAIL_URL"),
			MaxScrolls: v.GetInt("SCRAPER_MAX_SCROLLS"),
			ScrollStep: v.GetInt("SCRAPER_SCROLL_STEP"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Output: Output{
			Dir: v.GetString("OUTPUT_DIR"),
		},
	}
}
