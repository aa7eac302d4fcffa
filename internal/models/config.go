package models

import "time"

type ConfigFile struct {
	Address           string
	Port              string
	Cors              bool
	PrintHttpRequests bool
	LogToFile         bool
	LogLevel          string
	JwtSecret         string
	SnowflakeWorkerID int64
	SelfContained     bool
	SqlitePath        string
	DbUser            string
	DbPassword        string
	DbAddress         string
	DbPort            string
	DbDatabase        string
	RedisAddress      string
	RedisPassword     string
	CacheTTLMinutes   int
	PollIntervalMs    int
	MessageWindow     int
	UploadDir         string
	AssistantURL      string
	AssistantKey      string
}

func (cfg ConfigFile) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalMs) * time.Millisecond
}

func (cfg ConfigFile) CacheTTL() time.Duration {
	return time.Duration(cfg.CacheTTLMinutes) * time.Minute
}
