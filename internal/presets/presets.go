package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"scrollcap.dev/scrollcap/internal/frame"
)

// Store manages named crop presets in a YAML file. Built-in presets are
// always available; user presets with the same name win.
type Store struct {
	path string
}

// DefaultPath returns the per-user preset file location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find config directory: %w", err)
	}
	return filepath.Join(configDir, "scrollcap", "presets.yaml"), nil
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the preset file location.
func (s *Store) Path() string { return s.path }

// Builtin returns the presets shipped with the tool: common screen
// resolutions plus typical VM window sizes.
func Builtin() map[string]string {
	return map[string]string{
		"1080p":     "0,0,1920,1080",
		"720p":      "0,0,1280,720",
		"4k":        "0,0,3840,2160",
		"vm-small":  "100,100,1024,768",
		"vm-medium": "100,100,1280,800",
		"vm-large":  "100,100,1920,1080",
	}
}

// LoadUser reads the user preset file. A missing file yields an empty
// map.
func (s *Store) LoadUser() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	user := map[string]string{}
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	return user, nil
}

// All merges built-in and user presets, user presets winning.
func (s *Store) All() (map[string]string, error) {
	all := Builtin()
	user, err := s.LoadUser()
	if err != nil {
		return nil, err
	}
	for name, value := range user {
		all[name] = value
	}
	return all, nil
}

// Resolve looks up a preset by name and parses it as a crop region.
func (s *Store) Resolve(name string) (frame.CropRegion, error) {
	all, err := s.All()
	if err != nil {
		return frame.CropRegion{}, err
	}
	value, ok := all[name]
	if !ok {
		return frame.CropRegion{}, fmt.Errorf("preset %q not found", name)
	}
	return frame.ParseCropRegion(value)
}

// Save stores one user preset, creating the file and its directory as
// needed.
func (s *Store) Save(name, value string) error {
	if _, err := frame.ParseCropRegion(value); err != nil {
		return fmt.Errorf("invalid preset value %q: %w", value, err)
	}

	user, err := s.LoadUser()
	if err != nil {
		return err
	}
	user[name] = value

	data, err := yaml.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}
	return nil
}

// ParseSaveArg parses the "name:x,y,width,height" form used by
// --save-preset.
func ParseSaveArg(arg string) (name, value string, err error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid preset format %q, use name:x,y,width,height", arg)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}
