package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
)

type LocationCfg struct {
	Permission string // granted|denied
	Latitude   float64
	Longitude  float64
}

func (l LocationCfg) Coordinate() model.Coordinate {
	return model.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

type MapCfg struct {
	LatitudeDelta  float64
	LongitudeDelta float64
	MarkerIconURL  string
	H3Res          int
}

type IntentsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	BackendURL      string
	BackendTimeout  time.Duration
	BackendRPS      float64
	BackendBurst    int
	TypesParamStyle string
	Location        LocationCfg
	Map             MapCfg
	Intents         IntentsCfg
	MetricsEnabled  bool
}

const DefaultMarkerIcon = "https://callforcodeclimate2020.mybluemix.net/uploads/f5bd26ad7d18-logo2.png"

func FromEnv() Config {
	res := getint("H3_RES", 9)
	if res < 0 || res > 15 {
		res = 9
	}

	style := strings.ToLower(getenv("TYPES_PARAM_STYLE", "comma"))
	if style != "comma" && style != "repeated" {
		style = "comma"
	}

	perm := strings.ToLower(getenv("LOCATION_PERMISSION", "granted"))
	if perm != "denied" {
		perm = "granted"
	}

	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		BackendURL:      strings.TrimRight(getenv("BACKEND_URL", "http://localhost:3333"), "/"),
		BackendTimeout:  getduration("BACKEND_TIMEOUT", 30*time.Second),
		BackendRPS:      getfloat("BACKEND_RPS", 0),
		BackendBurst:    getint("BACKEND_BURST", 5),
		TypesParamStyle: style,
		Location: LocationCfg{
			Permission: perm,
			Latitude:   getfloat("DEVICE_LAT", -23.5),
			Longitude:  getfloat("DEVICE_LON", -46.6),
		},
		Map: MapCfg{
			LatitudeDelta:  getfloat("MAP_LAT_DELTA", 0.014),
			LongitudeDelta: getfloat("MAP_LON_DELTA", 0.014),
			MarkerIconURL:  getenv("MARKER_ICON_URL", DefaultMarkerIcon),
			H3Res:          res,
		},
		Intents: IntentsCfg{
			Enabled: getbool("INTENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "navigation-intents"),
			Queue:   getint("INTENTS_QUEUE", 256),
		},
		MetricsEnabled: getbool("METRICS_ENABLED", true),
	}
}

// BrokerList splits the comma separated broker list.
func (c IntentsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
