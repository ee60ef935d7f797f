package providers

import (
	"errors"
	"fmt"
	"io/fs"
	"listenerd/internal/structures"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// A .env next to the binary is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	_ = v.BindEnv("logger.level", "LISTENERD_LOG_LEVEL")
	_ = v.BindEnv("collector.interval", "LISTENERD_COLLECT_INTERVAL")
	_ = v.BindEnv("collector.timeout", "LISTENERD_COLLECT_TIMEOUT")
	_ = v.BindEnv("archive.dir", "LISTENERD_ARCHIVE_DIR")
	_ = v.BindEnv("archive.rollingWindow", "LISTENERD_ROLLING_WINDOW")
	_ = v.BindEnv("persistence.saveInterval", "LISTENERD_SAVE_INTERVAL")
	_ = v.BindEnv("cache.enabled", "LISTENERD_CACHE_ENABLED")
	_ = v.BindEnv("cache.size", "LISTENERD_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	conf.ApplyDefaults()

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ListenerDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
