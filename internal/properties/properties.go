package properties

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

func RootPath() string {
	return os.Getenv("ROOT_PATH")
}

// DataPath joins elements under ROOT_PATH/data.
func DataPath(elem ...string) string {
	return filepath.Join(append([]string{RootPath(), "data"}, elem...)...)
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

type Config struct {
	StacURL          string
	Collection       string
	AssetKey         string
	SASURL           string
	SubscriptionKey  string
	StacClientID     string
	StacClientSecret string
	StacTokenURL     string
	MinYear          int
	MaxYear          int
	HTTPTimeout      time.Duration
	RetryAttempts    int
	RetryBackoff     time.Duration
	ChunkSize        int
	BoundaryPath     string
	BatchWorkers     int
	LogLevel         string
	MetricsAddr      string
}

func FromEnv() Config {
	minYear := getint("LULC_MIN_YEAR", 2017)
	maxYear := getint("LULC_MAX_YEAR", 2024)
	if maxYear < minYear {
		minYear, maxYear = 2017, 2024
	}

	chunk := getint("RASTER_CHUNK_SIZE", 1024)
	if chunk <= 0 {
		chunk = 1024
	}

	attempts := getint("RETRY_ATTEMPTS", 3)
	if attempts < 1 {
		attempts = 1
	}

	return Config{
		StacURL:          strings.TrimRight(getenv("STAC_URL", "https://planetarycomputer.microsoft.com/api/stac/v1"), "/"),
		Collection:       getenv("STAC_COLLECTION", "io-lulc-annual-v02"),
		AssetKey:         getenv("STAC_ASSET_KEY", "data"),
		SASURL:           strings.TrimRight(getenv("PC_SAS_URL", "https://planetarycomputer.microsoft.com/api/sas/v1"), "/"),
		SubscriptionKey:  os.Getenv("PC_SDK_SUBSCRIPTION_KEY"),
		StacClientID:     os.Getenv("STAC_CLIENT_ID"),
		StacClientSecret: os.Getenv("STAC_CLIENT_SECRET"),
		StacTokenURL:     os.Getenv("STAC_TOKEN_URL"),
		MinYear:          minYear,
		MaxYear:          maxYear,
		HTTPTimeout:      getduration("HTTP_TIMEOUT", 30*time.Second),
		RetryAttempts:    attempts,
		RetryBackoff:     getduration("RETRY_BACKOFF", 500*time.Millisecond),
		ChunkSize:        chunk,
		BoundaryPath:     getenv("BOUNDARY_PATH", DataPath("2011_Dist.shp")),
		BatchWorkers:     getint("BATCH_WORKERS", 4),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}
}

// Years lists the selectable LULC years, oldest first.
func (c Config) Years() []string {
	years := make([]string, 0, c.MaxYear-c.MinYear+1)
	for y := c.MinYear; y <= c.MaxYear; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
