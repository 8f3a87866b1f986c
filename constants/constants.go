package constants

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DiatonicHoles  = 10
	ChromaticHoles = 12
)

const (
	KeyMapsDir          = "maps.dir"
	KeyMapsTable        = "maps.table"
	KeyMapsEndpoint     = "maps.endpoint"
	KeyMapsRegion       = "maps.region"
	KeyHarmonicaType    = "harmonica.type"
	KeyHarmonicaKey     = "harmonica.key"
	KeySearchMinShift   = "search.min_shift"
	KeySearchMaxShift   = "search.max_shift"
	KeySearchCoverage   = "search.min_coverage"
	KeySearchOrder      = "search.order"
	KeyServeAddr        = "serve.addr"
	KeyProgressDebounce = "progress.debounce"
	KeyProgressTTL      = "progress.ttl"
)

// ConfigName is the file looked up in . and $HOME/.harptab.
const ConfigName = "harptab"

func init() {
	SetDefaults(viper.GetViper())
}

// SetDefaults registers defaults and the HARPTAB_ environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("HARPTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMapsDir, "")
	v.SetDefault(KeyMapsTable, "")
	v.SetDefault(KeyMapsEndpoint, "")
	v.SetDefault(KeyMapsRegion, "us-east-1")
	v.SetDefault(KeyHarmonicaType, "diatonic")
	v.SetDefault(KeyHarmonicaKey, "C")
	v.SetDefault(KeySearchMinShift, -12)
	v.SetDefault(KeySearchMaxShift, 12)
	v.SetDefault(KeySearchCoverage, 0.8)
	v.SetDefault(KeySearchOrder, "magnitude")
	v.SetDefault(KeyServeAddr, ":8080")
	v.SetDefault(KeyProgressDebounce, 250*time.Millisecond)
	v.SetDefault(KeyProgressTTL, 10*time.Minute)
}

// LoadConfig reads path, or harptab.yaml from the usual places when path is
// empty. A missing default config file is not an error.
func LoadConfig(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
		return viper.ReadInConfig()
	}

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".harptab"))
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func GetMapsDir() string {
	return viper.GetString(KeyMapsDir)
}

func GetMapsTable() string {
	return viper.GetString(KeyMapsTable)
}

func GetMapsEndpoint() string {
	return viper.GetString(KeyMapsEndpoint)
}

func GetMapsRegion() string {
	return viper.GetString(KeyMapsRegion)
}

func GetHarmonicaType() string {
	return viper.GetString(KeyHarmonicaType)
}

func GetHarmonicaKey() string {
	return viper.GetString(KeyHarmonicaKey)
}

func GetMinShift() int {
	return viper.GetInt(KeySearchMinShift)
}

func GetMaxShift() int {
	return viper.GetInt(KeySearchMaxShift)
}

func GetMinCoverage() float64 {
	return viper.GetFloat64(KeySearchCoverage)
}

func GetSearchOrder() string {
	return viper.GetString(KeySearchOrder)
}

func GetServeAddr() string {
	return viper.GetString(KeyServeAddr)
}

func GetProgressDebounce() time.Duration {
	return viper.GetDuration(KeyProgressDebounce)
}

// GetProgressTTL is how long a finished session's history is kept for a
// client that never reads it.
func GetProgressTTL() time.Duration {
	return viper.GetDuration(KeyProgressTTL)
}
