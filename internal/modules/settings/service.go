package settings

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSetting is returned when writing a key that has no default.
var ErrUnknownSetting = fmt.Errorf("unknown setting")

// Service layers defaults, validation and the typed engine snapshot over the repository.
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a settings service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "settings").Logger(),
	}
}

// GetAll returns every known setting with stored values overriding defaults.
func (s *Service) GetAll() (map[string]interface{}, error) {
	stored, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	result := make(map[string]interface{}, len(SettingDefaults))
	for key, def := range SettingDefaults {
		raw, ok := stored[key]
		if !ok {
			result[key] = def
			continue
		}
		if StringSettings[key] {
			result[key] = raw
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			result[key] = def
			continue
		}
		result[key] = f
	}
	return result, nil
}

// Set validates and stores a setting. Numeric settings accept numbers, numeric
// strings and booleans.
func (s *Service) Set(key string, value interface{}) error {
	if _, ok := SettingDefaults[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	str, err := encodeValue(key, value)
	if err != nil {
		return err
	}

	var desc *string
	if d, ok := SettingDescriptions[key]; ok {
		desc = &d
	}
	if err := s.repo.Set(key, str, desc); err != nil {
		return err
	}

	s.log.Info().Str("key", key).Str("value", str).Msg("Setting updated")
	return nil
}

func encodeValue(key string, value interface{}) (string, error) {
	if StringSettings[key] {
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v), nil
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, ","), nil
		default:
			return fmt.Sprint(v), nil
		}
	}

	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			if strings.EqualFold(v, "true") || strings.EqualFold(v, "false") {
				return encodeValue(key, strings.EqualFold(v, "true"))
			}
			return "", fmt.Errorf("setting %s expects a number, got %q", key, v)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("setting %s expects a number, got %T", key, value)
	}
}

// SeedFromYAML writes settings from a YAML mapping of key: value without
// overwriting values that are already stored. Unknown keys are logged and skipped.
// Returns the number of settings written.
func (s *Service) SeedFromYAML(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read settings seed %s: %w", path, err)
	}

	var seed map[string]interface{}
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse settings seed %s: %w", path, err)
	}

	keys := make([]string, 0, len(seed))
	for k := range seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	written := 0
	for _, key := range keys {
		if _, ok := SettingDefaults[key]; !ok {
			s.log.Warn().Str("key", key).Msg("Ignoring unknown key in settings seed")
			continue
		}
		str, err := encodeValue(key, seed[key])
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Ignoring invalid value in settings seed")
			continue
		}
		ok, err := s.repo.SetIfAbsent(key, str)
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}

	s.log.Info().Int("written", written).Str("path", path).Msg("Settings seed applied")
	return written, nil
}

// Snapshot reads a typed view of every engine setting. An error means the
// settings store is unreadable and the caller must block trading for the tick.
func (s *Service) Snapshot() (EngineSettings, error) {
	stored, err := s.repo.GetAll()
	if err != nil {
		return EngineSettings{}, fmt.Errorf("failed to read settings snapshot: %w", err)
	}
	r := reader{stored: stored, log: s.log}
	return r.engineSettings(), nil
}

// reader resolves typed values from a stored map, falling back to SettingDefaults.
type reader struct {
	stored map[string]string
	log    zerolog.Logger
}

func (r reader) getFloat(key string) float64 {
	def, _ := SettingDefaults[key].(float64)
	raw, ok := r.stored[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		r.log.Warn().Str("key", key).Str("value", raw).Msg("Invalid numeric setting, using default")
		return def
	}
	return f
}

func (r reader) getInt(key string) int {
	return int(r.getFloat(key))
}

func (r reader) getBool(key string) bool {
	if raw, ok := r.stored[key]; ok {
		return parseBool(raw)
	}
	def, _ := SettingDefaults[key].(float64)
	return def != 0
}

func (r reader) getString(key string) string {
	if raw, ok := r.stored[key]; ok {
		return raw
	}
	def, _ := SettingDefaults[key].(string)
	return def
}
