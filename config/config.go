package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"glitchfinder/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	HTTPAddr string

	// Deal policy thresholds
	MinDiscount float64 // percent, deal passes on discount OR savings
	MinSavings  float64 // euros
	MaxPrice    float64 // euros, price ceiling

	// Session caps
	MaxResults         int
	MaxKeywordDepth    int
	AdapterConcurrency int

	// Network
	FetchTimeout   time.Duration
	VerifyCacheTTL time.Duration
	BlockTime      time.Duration

	// Retailer search URL templates; %s is the keyword slot
	AmazonURL    string
	CdiscountURL string
	DartyURL     string
	FnacURL      string
	LdlcURL      string

	// Availability heuristics
	OutOfStockMarkers []string

	// Enrichment sources
	CouponSources []string
	CashbackTable map[string]float64

	// Redis configuration (optional deal feed)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (optional)
	MemcacheAddr string

	// Category to keyword tables
	DefaultCategory string
	Categories      map[string][]string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MinDiscount: getFloat("MIN_DISCOUNT", 35),
		MinSavings:  getFloat("MIN_SAVINGS", 300),
		MaxPrice:    getFloat("MAX_PRICE", 1000),

		MaxResults:         getInt("MAX_RESULTS", 5),
		MaxKeywordDepth:    getInt("MAX_KEYWORD_DEPTH", 3),
		AdapterConcurrency: getInt("ADAPTER_CONCURRENCY", 4),

		FetchTimeout:   time.Duration(getInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		VerifyCacheTTL: time.Duration(getInt("VERIFY_CACHE_TTL_SECONDS", 300)) * time.Second,
		BlockTime:      time.Duration(getInt("BLOCK_TIME_SECONDS", 500)) * time.Second,

		AmazonURL:    getEnv("AMAZON_URL", "https://www.amazon.fr/s?k=%s"),
		CdiscountURL: getEnv("CDISCOUNT_URL", "https://www.cdiscount.com/search/10/%s.html"),
		DartyURL:     getEnv("DARTY_URL", "https://www.darty.com/nav/recherche/%s.html"),
		FnacURL:      getEnv("FNAC_URL", "https://www.fnac.com/SearchResult/ResultList.aspx?SCat=0&Search=%s"),
		LdlcURL:      getEnv("LDLC_URL", "https://www.ldlc.com/search/%s/"),

		OutOfStockMarkers: getList("OUT_OF_STOCK_MARKERS", []string{"indisponible", "rupture", "out of stock"}),

		CouponSources: getList("COUPON_SOURCES", []string{
			"https://www.igraal.com",
			"https://www.poulpeo.com",
			"https://www.ma-reduc.com",
			"https://www.radins.com",
		}),
		CashbackTable: getTable("CASHBACK_TABLE", map[string]float64{
			"amazon":    2,
			"cdiscount": 5,
			"darty":     2,
			"fnac":      5,
			"ldlc":      10,
		}),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "glitchdeals"),
		RedisStreamCount:     getInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getInt("REDIS_STREAM_MAX_LENGTH", 500),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		DefaultCategory: getEnv("DEFAULT_CATEGORY", "high-tech"),
		Categories:      defaultCategories(),

		Environment: getEnv("GLITCH_ENVIRONMENT", "development"),
	}
}

// defaultCategories returns the built-in category to keyword tables.
// Keywords are the French search terms fed to each retailer adapter.
func defaultCategories() map[string][]string {
	return map[string][]string{
		"high-tech": {
			"ordinateur portable",
			"smartphone",
			"casque bluetooth",
			"ssd nvme",
			"ecran pc",
		},
		"electromenager": {
			"aspirateur robot",
			"machine a cafe",
			"lave linge",
			"micro ondes",
			"friteuse sans huile",
		},
		"gaming": {
			"console de jeux",
			"manette sans fil",
			"carte graphique",
			"pc gamer",
			"casque gaming",
		},
	}
}

// Validate checks the configuration for nonsensical values
func (c *Config) Validate() error {
	if c.MaxResults <= 0 {
		return errors.NewConfiguration("MAX_RESULTS must be positive", nil)
	}
	if c.MaxKeywordDepth <= 0 {
		return errors.NewConfiguration("MAX_KEYWORD_DEPTH must be positive", nil)
	}
	if c.AdapterConcurrency <= 0 {
		return errors.NewConfiguration("ADAPTER_CONCURRENCY must be positive", nil)
	}
	if c.MaxPrice <= 0 {
		return errors.NewConfiguration("MAX_PRICE must be positive", nil)
	}
	if c.MinDiscount < 0 || c.MinDiscount > 100 {
		return errors.NewConfiguration("MIN_DISCOUNT must be within [0, 100]", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if len(c.Categories) == 0 {
		return errors.NewConfiguration("no category keyword tables configured", nil)
	}
	if _, ok := c.Categories[c.DefaultCategory]; !ok {
		return errors.NewConfiguration("DEFAULT_CATEGORY has no keyword table", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getInt retrieves an integer environment variable or returns a default value
func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getFloat retrieves a float environment variable or returns a default value
func getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getList retrieves a comma-separated environment variable as a slice
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getTable retrieves a "key:value,key:value" environment variable as a map
func getTable(key string, defaultValue map[string]float64) map[string]float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := make(map[string]float64)
	for _, pair := range strings.Split(value, ",") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(kv[0]))] = amount
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
