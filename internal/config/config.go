package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Shanghai"
	configPathEnv   = "BRIEFING_CONFIG"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Mail     MailConfig     `yaml:"mail"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Filter   FilterConfig   `yaml:"filter"`
	Tasks    TasksConfig    `yaml:"tasks"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig points at the SQLite file backing sheets and state.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig defines the content calendar.
type ScheduleConfig struct {
	Timezone        string         `yaml:"timezone"`
	RolloverHour    int            `yaml:"rolloverHour"`
	MonitorInterval time.Duration  `yaml:"monitorInterval"`
	location        *time.Location `yaml:"-"`
}

// Location resolves the schedule timezone string to a time.Location.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SheetsConfig names the record and subscriber sheets.
type SheetsConfig struct {
	Records string `yaml:"records"`
	Users   string `yaml:"users"`
}

// MailConfig carries sender credentials and the SMTP endpoint.
type MailConfig struct {
	Host       string   `yaml:"host"`
	Port       int      `yaml:"port"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	SenderName string   `yaml:"senderName"`
	Recipients []string `yaml:"recipients"`
}

// LLMConfig defines how to contact the chat completion API.
type LLMConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"apiKey"`
	ChatModel      string        `yaml:"chatModel"`
	ReasoningModel string        `yaml:"reasoningModel"`
	Timeout        time.Duration `yaml:"timeout"`
}

// TelegramConfig wires the review chat.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// FilterConfig tunes recency, length and safety admission.
type FilterConfig struct {
	WindowHours  int           `yaml:"windowHours"`
	MinWords     int           `yaml:"minWords"`
	MaxWords     int           `yaml:"maxWords"`
	BannedTerms  []string      `yaml:"bannedTerms"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

// TasksConfig groups per-task source settings.
type TasksConfig struct {
	Morning   DigestTaskConfig  `yaml:"morning"`
	Afternoon TopicTaskConfig   `yaml:"afternoon"`
	Evening   ArticleTaskConfig `yaml:"evening"`
}

// DigestTaskConfig drives the recent-news digest.
type DigestTaskConfig struct {
	Sources      []string `yaml:"sources"`
	PerSource    int      `yaml:"perSource"`
	SummaryChars int      `yaml:"summaryChars"`
	Temperature  float64  `yaml:"temperature"`
}

// TopicTaskConfig drives the fixed topic rotation.
type TopicTaskConfig struct {
	TopicsPath  string  `yaml:"topicsPath"`
	RotationKey string  `yaml:"rotationKey"`
	SampleSize  int     `yaml:"sampleSize"`
	Temperature float64 `yaml:"temperature"`
}

// ArticleTaskConfig drives the filtered long-form reading.
type ArticleTaskConfig struct {
	Sources      []string `yaml:"sources"`
	PerSource    int      `yaml:"perSource"`
	HistoryScope string   `yaml:"historyScope"`
	Temperature  float64  `yaml:"temperature"`
	// WindowHours overrides filter.windowHours; 0 disables recency.
	WindowHours int `yaml:"windowHours"`
}

// secrets are sourced from the environment only.
type secrets struct {
	LogLevel       string   `env:"LOG_LEVEL"`
	Database       string   `env:"BRIEFING_DATABASE"`
	MailUsername   string   `env:"MAIL_USERNAME"`
	MailPassword   string   `env:"MAIL_PASSWORD"`
	MailRecipients []string `env:"MAIL_RECIPIENTS" envSeparator:","`
	LLMAPIKey      string   `env:"DEEPSEEK_API_KEY"`
	TelegramToken  string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string   `env:"TELEGRAM_CHAT_ID"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
				cfg = applyZeroValues(cfg, raw)
			}
		}
	}

	var s secrets
	if err := env.Parse(&s); err != nil {
		log.Printf("config: cannot parse environment: %v", err)
	} else {
		cfg.applySecrets(s)
	}
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applySecrets(s secrets) {
	if s.LogLevel != "" {
		c.Logging.Level = s.LogLevel
	}
	if s.Database != "" {
		c.Database.Path = s.Database
	}
	if s.MailUsername != "" {
		c.Mail.Username = s.MailUsername
	}
	if s.MailPassword != "" {
		c.Mail.Password = s.MailPassword
	}
	if recipients := cleanList(s.MailRecipients); len(recipients) > 0 {
		c.Mail.Recipients = recipients
	}
	if s.LLMAPIKey != "" {
		c.LLM.APIKey = s.LLMAPIKey
	}
	if s.TelegramToken != "" {
		c.Telegram.BotToken = s.TelegramToken
	}
	if s.TelegramChatID != "" {
		c.Telegram.ChatID = s.TelegramChatID
	}
}

func (c *Config) bindTimezone() {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Schedule.location = loc
}

// zeroable lists options where an explicit 0 disables a feature, so presence
// in the file matters and not only the value.
type zeroable struct {
	Schedule struct {
		RolloverHour *int `yaml:"rolloverHour"`
	} `yaml:"schedule"`
	Filter struct {
		WindowHours *int `yaml:"windowHours"`
	} `yaml:"filter"`
}

func applyZeroValues(base Config, raw []byte) Config {
	var z zeroable
	if err := yaml.Unmarshal(raw, &z); err != nil {
		return base
	}
	if z.Schedule.RolloverHour != nil {
		base.Schedule.RolloverHour = *z.Schedule.RolloverHour
	}
	if z.Filter.WindowHours != nil {
		base.Filter.WindowHours = *z.Filter.WindowHours
	}
	return base
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Schedule.Timezone != "" {
		base.Schedule.Timezone = override.Schedule.Timezone
	}
	if override.Schedule.RolloverHour > 0 {
		base.Schedule.RolloverHour = override.Schedule.RolloverHour
	}
	if override.Schedule.MonitorInterval > 0 {
		base.Schedule.MonitorInterval = override.Schedule.MonitorInterval
	}

	if override.Sheets.Records != "" {
		base.Sheets.Records = override.Sheets.Records
	}
	if override.Sheets.Users != "" {
		base.Sheets.Users = override.Sheets.Users
	}

	if override.Mail.Host != "" {
		base.Mail.Host = override.Mail.Host
	}
	if override.Mail.Port > 0 {
		base.Mail.Port = override.Mail.Port
	}
	if override.Mail.Username != "" {
		base.Mail.Username = override.Mail.Username
	}
	if override.Mail.Password != "" {
		base.Mail.Password = override.Mail.Password
	}
	if override.Mail.SenderName != "" {
		base.Mail.SenderName = override.Mail.SenderName
	}
	if len(override.Mail.Recipients) > 0 {
		base.Mail.Recipients = override.Mail.Recipients
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.ChatModel != "" {
		base.LLM.ChatModel = override.LLM.ChatModel
	}
	if override.LLM.ReasoningModel != "" {
		base.LLM.ReasoningModel = override.LLM.ReasoningModel
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if override.Filter.WindowHours > 0 {
		base.Filter.WindowHours = override.Filter.WindowHours
	}
	if override.Filter.MinWords > 0 {
		base.Filter.MinWords = override.Filter.MinWords
	}
	if override.Filter.MaxWords > 0 {
		base.Filter.MaxWords = override.Filter.MaxWords
	}
	if len(override.Filter.BannedTerms) > 0 {
		base.Filter.BannedTerms = override.Filter.BannedTerms
	}
	if override.Filter.FetchTimeout > 0 {
		base.Filter.FetchTimeout = override.Filter.FetchTimeout
	}

	m := override.Tasks.Morning
	if len(m.Sources) > 0 {
		base.Tasks.Morning.Sources = m.Sources
	}
	if m.PerSource > 0 {
		base.Tasks.Morning.PerSource = m.PerSource
	}
	if m.SummaryChars > 0 {
		base.Tasks.Morning.SummaryChars = m.SummaryChars
	}
	if m.Temperature > 0 {
		base.Tasks.Morning.Temperature = m.Temperature
	}

	a := override.Tasks.Afternoon
	if a.TopicsPath != "" {
		base.Tasks.Afternoon.TopicsPath = a.TopicsPath
	}
	if a.RotationKey != "" {
		base.Tasks.Afternoon.RotationKey = a.RotationKey
	}
	if a.SampleSize > 0 {
		base.Tasks.Afternoon.SampleSize = a.SampleSize
	}
	if a.Temperature > 0 {
		base.Tasks.Afternoon.Temperature = a.Temperature
	}

	e := override.Tasks.Evening
	if len(e.Sources) > 0 {
		base.Tasks.Evening.Sources = e.Sources
	}
	if e.PerSource > 0 {
		base.Tasks.Evening.PerSource = e.PerSource
	}
	if e.HistoryScope != "" {
		base.Tasks.Evening.HistoryScope = e.HistoryScope
	}
	if e.WindowHours > 0 {
		base.Tasks.Evening.WindowHours = e.WindowHours
	}
	if e.Temperature > 0 {
		base.Tasks.Evening.Temperature = e.Temperature
	}

	return base
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "data/briefing.db"},
		Schedule: ScheduleConfig{
			Timezone:        defaultTimezone,
			RolloverHour:    18,
			MonitorInterval: 10 * time.Minute,
		},
		Sheets: SheetsConfig{Records: "Check", Users: "Users"},
		Mail: MailConfig{
			Host:       "smtp.163.com",
			Port:       465,
			SenderName: "AI News Agent",
		},
		LLM: LLMConfig{
			Endpoint:       "https://api.deepseek.com/chat/completions",
			ChatModel:      "deepseek-chat",
			ReasoningModel: "deepseek-reasoner",
			Timeout:        5 * time.Minute,
		},
		Filter: FilterConfig{
			WindowHours: 24,
			MinWords:    600,
			MaxWords:    3000,
			BannedTerms: []string{
				// politics
				"trump", "biden", "election", "democrat", "republican", "senate", "congress",
				"white house", "putin", "xi jinping", "zelensky", "netanyahu",
				"ukraine", "russia", "gaza", "israel", "palestine", "hamas", "war", "military",
				"strike", "missile", "weapon", "sanction", "treaty", "diplomacy",
				"government", "politics", "policy", "parliament", "protest", "riot",
				// violence
				"murder", "kill", "suicide", "assassinate", "terrorist", "terrorism",
				"bomb", "attack", "shooting", "gun", "crime", "victim", "abuse",
				// nsfw, drugs, gambling
				"sex", "porn", "erotic", "nude", "rape", "assault",
				"drug", "cocaine", "heroin", "marijuana", "cannabis", "opioid",
				"casino", "gambling", "betting", "lottery",
			},
			FetchTimeout: 20 * time.Second,
		},
		Tasks: TasksConfig{
			Morning: DigestTaskConfig{
				Sources: []string{
					"https://www.cnbc.com/id/10000664/device/rss/rss.html",
					"https://feeds.bloomberg.com/markets/news.rss",
					"https://techcrunch.com/feed/",
					"https://www.theverge.com/rss/index.xml",
					"https://www.eonline.com/news/rss.xml",
					"https://variety.com/feed/",
					"https://www.newyorker.com/feed/culture",
					"https://www.theguardian.com/culture/rss",
				},
				PerSource:    5,
				SummaryChars: 300,
				Temperature:  0.2,
			},
			Afternoon: TopicTaskConfig{
				TopicsPath:  "data/topics.json",
				RotationKey: "ielts",
				SampleSize:  3,
				Temperature: 0.3,
			},
			Evening: ArticleTaskConfig{
				Sources: []string{
					"https://www.nasa.gov/news-release/feed/",
					"https://webbtelescope.org/news/news-releases?format=rss",
					"https://chandra.si.edu/press/rss.xml",
					"https://www.usgs.gov/news/feed",
					"https://www.fws.gov/news/rss",
					"https://www.nsf.gov/rss/rss_www_news.xml",
					"https://www.noaa.gov/news-releases/feed",
				},
				PerSource:    3,
				HistoryScope: "evening",
				Temperature:  0.3,
			},
		},
	}
}
