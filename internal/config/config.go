package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the dashboard service.
type Config struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	PdMEndpoint      string
	PdMTimeout       time.Duration
	PdMReadingsLimit int
	PdMROIWindow     string

	DBEnabled      bool
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBConnTimeout  time.Duration
	DBQueryTimeout time.Duration

	SettingsSQLitePath string

	LiveEnabled  bool
	LiveBroker   string
	LiveClientID string
	LiveUser     string
	LivePassword string
	LiveTopic    string
	LiveBuffer   int

	ScheduleDefaultType     string
	ScheduleDefaultPriority string
	ScheduleDefaultMinutes  int

	ChartSyntheticPoints int
}

// FromEnv loads configuration from environment variables with sensible defaults.
func FromEnv() Config {
	loadConfigDefaultsFromFile()
	loadSecretsDefaultsFromFile()

	return Config{
		ListenAddr:      getEnv("APP_LISTEN_ADDR", ":8080"),
		ReadTimeout:     time.Duration(getEnvInt("APP_READ_TIMEOUT_SEC", 10)) * time.Second,
		WriteTimeout:    time.Duration(getEnvInt("APP_WRITE_TIMEOUT_SEC", 20)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvInt("APP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,

		PdMEndpoint:      getEnv("APP_PDM_ENDPOINT", "http://127.0.0.1:8000"),
		PdMTimeout:       time.Duration(getEnvInt("APP_PDM_TIMEOUT_SEC", 10)) * time.Second,
		PdMReadingsLimit: getEnvInt("APP_PDM_READINGS_LIMIT", 100),
		PdMROIWindow:     getEnv("APP_PDM_ROI_WINDOW", "12months"),

		DBEnabled:      getEnvBool("APP_DB_ENABLED", false),
		DBHost:         getEnv("APP_DB_HOST", "127.0.0.1"),
		DBPort:         getEnvInt("APP_DB_PORT", 3306),
		DBUser:         getEnv("APP_DB_USER", "pdm"),
		DBPassword:     getEnv("APP_DB_PASSWORD", "demo"),
		DBName:         getEnv("APP_DB_NAME", "predictive_maintenance"),
		DBConnTimeout:  time.Duration(getEnvInt("APP_DB_CONN_TIMEOUT_SEC", 5)) * time.Second,
		DBQueryTimeout: time.Duration(getEnvInt("APP_DB_QUERY_TIMEOUT_SEC", 10)) * time.Second,

		SettingsSQLitePath: getEnv("APP_SETTINGS_SQLITE_PATH", ""),

		LiveEnabled:  getEnvBool("APP_LIVE_ENABLED", false),
		LiveBroker:   getEnv("APP_LIVE_BROKER", "tcp://127.0.0.1:1883"),
		LiveClientID: getEnv("APP_LIVE_CLIENT_ID", "pdm-maintenance-ui"),
		LiveUser:     getEnv("APP_LIVE_USER", ""),
		LivePassword: getEnv("APP_LIVE_PASSWORD", ""),
		LiveTopic:    getEnv("APP_LIVE_TOPIC", "equipment/+/readings"),
		LiveBuffer:   getEnvInt("APP_LIVE_BUFFER", 120),

		ScheduleDefaultType:     getEnv("APP_SCHEDULE_DEFAULT_TYPE", "preventive"),
		ScheduleDefaultPriority: getEnv("APP_SCHEDULE_DEFAULT_PRIORITY", "medium"),
		ScheduleDefaultMinutes:  getEnvInt("APP_SCHEDULE_DEFAULT_MINUTES", 120),

		ChartSyntheticPoints: getEnvInt("APP_CHART_SYNTHETIC_POINTS", 10),
	}
}

func loadConfigDefaultsFromFile() {
	bootstrapCandidates := []string{
		"./pdm-maintenance-ui.env",
		"/etc/default/pdm-maintenance-ui",
	}

	for _, candidate := range bootstrapCandidates {
		abs := candidate
		if !filepath.IsAbs(candidate) {
			if wd, err := os.Getwd(); err == nil {
				abs = filepath.Join(wd, candidate)
			}
		}
		_ = applyEnvDefaultsFromFile(abs)
	}

	candidates := make([]string, 0, 2)
	if explicit := strings.TrimSpace(os.Getenv("APP_CONFIG_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	candidates = append(candidates, "/etc/pdm-maintenance-ui/config.env")

	for _, candidate := range candidates {
		abs := candidate
		if !filepath.IsAbs(candidate) {
			if wd, err := os.Getwd(); err == nil {
				abs = filepath.Join(wd, candidate)
			}
		}

		if err := applyEnvDefaultsFromFile(abs); err == nil {
			return
		}
	}
}

func loadSecretsDefaultsFromFile() {
	candidates := make([]string, 0, 3)
	if explicit := strings.TrimSpace(os.Getenv("APP_SECRETS_FILE")); explicit != "" {
		candidates = append(candidates, explicit)
	}
	if credDir := strings.TrimSpace(os.Getenv("CREDENTIALS_DIRECTORY")); credDir != "" {
		credName := strings.TrimSpace(os.Getenv("APP_SECRETS_CREDENTIAL_NAME"))
		if credName == "" {
			credName = "app-secrets"
		}
		candidates = append(candidates, filepath.Join(credDir, credName))
	}
	candidates = append(candidates, "/etc/pdm-maintenance-ui/secrets.env")
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if err := applyEnvDefaultsFromFile(candidate); err == nil {
			return
		}
	}
}

func applyEnvDefaultsFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}

		if len(val) >= 2 {
			if (val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'') {
				val = val[1 : len(val)-1]
			}
		}

		if os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}

	return scanner.Err()
}

// MySQLDSN returns a mysql driver DSN with safe defaults for TCP access.
func (c Config) MySQLDSN() string {
	params := url.Values{}
	params.Set("parseTime", "true")
	params.Set("timeout", c.DBConnTimeout.String())
	params.Set("readTimeout", c.DBQueryTimeout.String())
	params.Set("writeTimeout", c.DBQueryTimeout.String())
	params.Set("charset", "utf8mb4")
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, params.Encode())
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}
