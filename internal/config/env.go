package config

// Environment overrides sit between DefaultConfig and CLI flags. A .env file
// is loaded first (variables already present in the process win), then every
// STILLMUX_* variable that is set replaces the matching default.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/backmassage/stillmux/internal/timing"
)

// EnvFileVar names the variable that points at an alternative .env file.
const EnvFileVar = "STILLMUX_ENV_FILE"

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// EnvFilePath returns $STILLMUX_ENV_FILE, or ".env" when unset.
func EnvFilePath() string {
	if p := os.Getenv(EnvFileVar); p != "" {
		return p
	}
	return ".env"
}

// ApplyEnv copies STILLMUX_* environment overrides into cfg. Unlike flags,
// a malformed value is reported with the variable name so it can be found.
func ApplyEnv(cfg *Config) error {
	if v, ok := lookup("STILLMUX_FPS"); ok {
		rate, err := timing.ParseRate(v)
		if err != nil {
			return envError("STILLMUX_FPS", err)
		}
		cfg.FrameRate = rate
	}
	if v, ok := lookup("STILLMUX_DURATION"); ok {
		d, err := timing.ParseClock(v)
		if err != nil {
			return envError("STILLMUX_DURATION", err)
		}
		cfg.StillDuration = d
	}
	if err := envInt("STILLMUX_WIDTH", &cfg.Width); err != nil {
		return err
	}
	if err := envInt("STILLMUX_HEIGHT", &cfg.Height); err != nil {
		return err
	}
	if err := envInt("STILLMUX_CRF", &cfg.CRF); err != nil {
		return err
	}
	if err := envInt("STILLMUX_QP", &cfg.QP); err != nil {
		return err
	}
	if v, ok := lookup("STILLMUX_FIT"); ok {
		if err := (&fitModeValue{&cfg.Fit}).Set(v); err != nil {
			return envError("STILLMUX_FIT", err)
		}
	}
	if v, ok := lookup("STILLMUX_ENCODER"); ok {
		if err := (&encoderModeValue{&cfg.EncoderMode}).Set(v); err != nil {
			return envError("STILLMUX_ENCODER", err)
		}
	}
	envStr("STILLMUX_VAAPI_DEVICE", &cfg.VaapiDevice)
	envStr("STILLMUX_PRESET", &cfg.Preset)
	envStr("STILLMUX_AUDIO_BITRATE", &cfg.AudioBitrate)
	envStr("STILLMUX_LOG", &cfg.LogFile)
	envStr("STILLMUX_HISTORY_DB", &cfg.HistoryDB)
	if err := envBool("STILLMUX_VERBOSE", &cfg.Verbose); err != nil {
		return err
	}

	envStr("STILLMUX_S3_ENDPOINT", &cfg.UploadEndpoint)
	envStr("STILLMUX_S3_ACCESS_KEY", &cfg.UploadAccessKey)
	envStr("STILLMUX_S3_SECRET_KEY", &cfg.UploadSecretKey)
	envStr("STILLMUX_S3_BUCKET", &cfg.UploadBucket)
	envStr("STILLMUX_S3_PREFIX", &cfg.UploadPrefix)
	if err := envBool("STILLMUX_S3_USE_SSL", &cfg.UploadUseSSL); err != nil {
		return err
	}

	// https://no-color.org
	if os.Getenv("NO_COLOR") != "" {
		cfg.ColorMode = ColorNever
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func envStr(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return envError(key, fmt.Errorf("%q is not a whole number", v))
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return envError(key, fmt.Errorf("%q is not a boolean", v))
	}
	*dst = b
	return nil
}

func envError(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
