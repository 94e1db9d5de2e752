package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"docudive/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	APIAddr    string `toml:"api_addr" validate:"required"`
	CORSOrigin string `toml:"cors_origin"`

	DataDir   string `toml:"data_dir" validate:"required"`
	ReportDir string `toml:"report_dir"`

	StoreBackend string `toml:"store_backend" validate:"oneof=sqlite postgres memory"`
	StoreDir     string `toml:"store_dir" validate:"required_if=StoreBackend sqlite"`
	PostgresURL  string `toml:"postgres_url" validate:"required_if=StoreBackend postgres"`

	ChunkSize      int     `toml:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int     `toml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	TopK           int     `toml:"top_k" validate:"gt=0"`
	EmbedDim       int     `toml:"embed_dim" validate:"gt=0"`
	EmbedBatchSize int     `toml:"embed_batch_size" validate:"gt=0"`
	EmbedRPS       float64 `toml:"embed_rps" validate:"gte=0"`

	EmbedProvider  string `toml:"embed_provider" validate:"required"`
	LLMProvider    string `toml:"llm_provider" validate:"required"`
	PromptTemplate string `toml:"prompt_template"`

	ObjectStore string `toml:"object_store" validate:"oneof=local s3"`
	UploadDir   string `toml:"upload_dir" validate:"required_if=ObjectStore local"`
	S3Bucket    string `toml:"s3_bucket" validate:"required_if=ObjectStore s3"`
	AWSRegion   string `toml:"aws_region"`

	JobRunner         string `toml:"job_runner" validate:"oneof=inline temporal"`
	TemporalAddress   string `toml:"temporal_address" validate:"required_if=JobRunner temporal"`
	TemporalTaskQueue string `toml:"temporal_task_queue" validate:"required_if=JobRunner temporal"`

	LogLevel  string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat string `toml:"log_format" validate:"oneof=console json"`
}

func Defaults() Config {
	return Config{
		APIAddr:           ":8080",
		CORSOrigin:        "http://localhost:3000",
		DataDir:           "data",
		ReportDir:         "data/out",
		StoreBackend:      "sqlite",
		StoreDir:          "chroma",
		ChunkSize:         800,
		ChunkOverlap:      80,
		TopK:              5,
		EmbedDim:          1024,
		EmbedBatchSize:    32,
		EmbedProvider:     "mock",
		LLMProvider:       "mock",
		ObjectStore:       "local",
		UploadDir:         "uploads",
		AWSRegion:         "us-east-1",
		JobRunner:         "inline",
		TemporalAddress:   "localhost:7233",
		TemporalTaskQueue: "docudive",
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load layers defaults, the optional TOML file named by DOCUDIVE_CONFIG and
// DOCUDIVE_* environment variables, then validates the result.
func Load() (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("DOCUDIVE_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return util.WrapOp("read config file", util.ErrConfiguration, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return util.WrapOp("parse config file "+path, util.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	env := &envReader{}
	c.APIAddr = env.get("DOCUDIVE_API_ADDR", c.APIAddr)
	c.CORSOrigin = env.get("DOCUDIVE_CORS_ORIGIN", c.CORSOrigin)
	c.DataDir = env.get("DOCUDIVE_DATA_DIR", c.DataDir)
	c.ReportDir = env.get("DOCUDIVE_REPORT_DIR", c.ReportDir)
	c.StoreBackend = env.get("DOCUDIVE_STORE_BACKEND", c.StoreBackend)
	c.StoreDir = env.get("DOCUDIVE_STORE_DIR", c.StoreDir)
	c.PostgresURL = env.get("DOCUDIVE_POSTGRES_URL", c.PostgresURL)
	c.ChunkSize = env.getInt("DOCUDIVE_CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = env.getInt("DOCUDIVE_CHUNK_OVERLAP", c.ChunkOverlap)
	c.TopK = env.getInt("DOCUDIVE_TOP_K", c.TopK)
	c.EmbedDim = env.getInt("DOCUDIVE_EMBED_DIM", c.EmbedDim)
	c.EmbedBatchSize = env.getInt("DOCUDIVE_EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedRPS = env.getFloat("DOCUDIVE_EMBED_RPS", c.EmbedRPS)
	c.EmbedProvider = env.get("DOCUDIVE_EMBED_PROVIDER", c.EmbedProvider)
	c.LLMProvider = env.get("DOCUDIVE_LLM_PROVIDER", c.LLMProvider)
	c.PromptTemplate = env.get("DOCUDIVE_PROMPT_TEMPLATE", c.PromptTemplate)
	c.ObjectStore = env.get("DOCUDIVE_OBJECT_STORE", c.ObjectStore)
	c.UploadDir = env.get("DOCUDIVE_UPLOAD_DIR", c.UploadDir)
	c.S3Bucket = env.get("DOCUDIVE_S3_BUCKET", c.S3Bucket)
	c.AWSRegion = env.get("DOCUDIVE_AWS_REGION", c.AWSRegion)
	c.JobRunner = env.get("DOCUDIVE_JOB_RUNNER", c.JobRunner)
	c.TemporalAddress = env.get("DOCUDIVE_TEMPORAL_ADDRESS", c.TemporalAddress)
	c.TemporalTaskQueue = env.get("DOCUDIVE_TEMPORAL_TASK_QUEUE", c.TemporalTaskQueue)
	c.LogLevel = strings.ToLower(env.get("DOCUDIVE_LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(env.get("DOCUDIVE_LOG_FORMAT", c.LogFormat))
	return env.err()
}

// Validate never corrects a bad value; every failure is an ErrConfiguration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return util.WrapOp("validate config", util.ErrConfiguration, errors.New(strings.Join(msgs, "; ")))
		}
		return util.WrapOp("validate config", util.ErrConfiguration, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "ltfield":
		return fmt.Sprintf("%s (%v) must be less than %s", fe.Field(), fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}

// envReader records unparsable values instead of falling back to defaults.
type envReader struct {
	bad []string
}

func (r *envReader) get(k, fallback string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return fallback
	}
	return v
}

func (r *envReader) getInt(k string, fallback int) int {
	v := r.get(k, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not an integer", k, v))
		return fallback
	}
	return n
}

func (r *envReader) getFloat(k string, fallback float64) float64 {
	v := r.get(k, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.bad = append(r.bad, fmt.Sprintf("%s=%q is not a number", k, v))
		return fallback
	}
	return f
}

func (r *envReader) err() error {
	if len(r.bad) == 0 {
		return nil
	}
	return util.WrapOp("read environment", util.ErrConfiguration, errors.New(strings.Join(r.bad, "; ")))
}
