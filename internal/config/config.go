package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

const DefaultFileName = "mergectl.toml"

// Config is the resolved provisioning and launch configuration. Relative
// paths are resolved against WorkspaceRoot by Path.
type Config struct {
	WorkspaceRoot string
	Environment   EnvironmentConfig
	Dependencies  []Dependency
	Tool          ToolConfig
	Directories   []string
	App           AppConfig
	Reset         ResetConfig
}

type EnvironmentConfig struct {
	Dir         string
	Interpreter string
}

// Dependency is one package specifier, optionally limited to or excluded
// from GOOS platforms.
type Dependency struct {
	Spec             string
	Platforms        []string
	ExcludePlatforms []string
}

type ToolConfig struct {
	Name        string
	Version     string
	URL         string
	Format      string
	InstallPath string
	BinDir      string
	Digest      string
}

type AppConfig struct {
	Entry    string
	ModeFlag string
	Pause    bool
}

type ResetConfig struct {
	Targets []ResetTarget
}

type ResetTarget struct {
	Name string
	Path string
}

type fileConfig struct {
	Environment  fileEnvironment  `toml:"environment"`
	Dependencies []fileDependency `toml:"dependencies"`
	Tool         fileTool         `toml:"tool"`
	Directories  []string         `toml:"directories"`
	App          fileApp          `toml:"app"`
	Reset        fileReset        `toml:"reset"`
}

type fileEnvironment struct {
	Dir         string `toml:"dir"`
	Interpreter string `toml:"interpreter"`
}

type fileDependency struct {
	Spec             string   `toml:"spec"`
	Platforms        []string `toml:"platforms"`
	ExcludePlatforms []string `toml:"exclude_platforms"`
}

type fileTool struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	URL         string `toml:"url"`
	Format      string `toml:"format"`
	InstallPath string `toml:"install_path"`
	BinDir      string `toml:"bin_dir"`
	Digest      string `toml:"digest"`
}

type fileApp struct {
	Entry    string `toml:"entry"`
	ModeFlag string `toml:"mode_flag"`
	Pause    bool   `toml:"pause"`
}

type fileReset struct {
	Targets []fileResetTarget `toml:"targets"`
}

type fileResetTarget struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

// Default returns the built-in configuration for the document merger.
func Default() Config {
	return Config{
		WorkspaceRoot: ".",
		Environment: EnvironmentConfig{
			Dir:         "venv",
			Interpreter: DefaultInterpreter(runtime.GOOS),
		},
		Dependencies: []Dependency{
			{Spec: "ttkbootstrap"},
			{Spec: "pypdf"},
			{Spec: "pypdfium2"},
			{Spec: "pdfplumber"},
			{Spec: "pdf2image"},
			{Spec: "rapidocr_onnxruntime"},
			{Spec: "numpy"},
			{Spec: "Pillow"},
			{Spec: "PyYAML"},
			{Spec: "pandas"},
			{Spec: "openpyxl"},
			{Spec: "groq"},
			{Spec: "ultralytics"},
			{Spec: "python-magic", ExcludePlatforms: []string{"windows"}},
			{Spec: "python-magic-bin", Platforms: []string{"windows"}},
		},
		Tool: ToolConfig{
			Name:        "poppler",
			Version:     "24.08.0-0",
			URL:         "https://github.com/oschwartz10612/poppler-windows/releases/download/v24.08.0-0/Release-24.08.0-0.zip",
			Format:      "zip",
			InstallPath: filepath.Join("tools", "poppler"),
			BinDir:      filepath.Join("Library", "bin"),
		},
		Directories: []string{"reports", "groq_cache", "quarantine", "Purchase_order"},
		App: AppConfig{
			Entry:    "cli.py",
			ModeFlag: "--gui",
			Pause:    true,
		},
		Reset: ResetConfig{
			Targets: []ResetTarget{
				{Name: "Database", Path: "merger_state.db"},
				{Name: "Logs", Path: "merger_system.log"},
				{Name: "Archives", Path: "archive"},
				{Name: "Quarantine", Path: "quarantine"},
			},
		},
	}
}

// DefaultInterpreter is the bootstrap python used to create the environment.
func DefaultInterpreter(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string, workspaceRoot string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(workspaceRoot) != "" {
		cfg.WorkspaceRoot = workspaceRoot
	}
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(cfg.WorkspaceRoot, DefaultFileName)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("config file not found, using defaults")
		return cfg, Validate(cfg)
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Warn().Str("path", path).Interface("keys", undecoded).Msg("ignoring unknown config keys")
	}
	applyFile(&cfg, raw, meta)

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	log.Info().Str("path", path).Msg("loaded config")
	return cfg, nil
}

func applyFile(cfg *Config, raw fileConfig, meta toml.MetaData) {
	if meta.IsDefined("environment", "dir") {
		cfg.Environment.Dir = strings.TrimSpace(raw.Environment.Dir)
	}
	if meta.IsDefined("environment", "interpreter") {
		cfg.Environment.Interpreter = strings.TrimSpace(raw.Environment.Interpreter)
	}
	if meta.IsDefined("dependencies") {
		cfg.Dependencies = make([]Dependency, 0, len(raw.Dependencies))
		for _, d := range raw.Dependencies {
			cfg.Dependencies = append(cfg.Dependencies, Dependency{
				Spec:             strings.TrimSpace(d.Spec),
				Platforms:        normalizeList(d.Platforms),
				ExcludePlatforms: normalizeList(d.ExcludePlatforms),
			})
		}
	}
	if meta.IsDefined("tool", "name") {
		cfg.Tool.Name = strings.TrimSpace(raw.Tool.Name)
	}
	if meta.IsDefined("tool", "version") {
		cfg.Tool.Version = strings.TrimSpace(raw.Tool.Version)
	}
	if meta.IsDefined("tool", "url") {
		cfg.Tool.URL = strings.TrimSpace(raw.Tool.URL)
	}
	if meta.IsDefined("tool", "format") {
		cfg.Tool.Format = strings.ToLower(strings.TrimSpace(raw.Tool.Format))
	}
	if meta.IsDefined("tool", "install_path") {
		cfg.Tool.InstallPath = filepath.FromSlash(strings.TrimSpace(raw.Tool.InstallPath))
	}
	if meta.IsDefined("tool", "bin_dir") {
		cfg.Tool.BinDir = filepath.FromSlash(strings.TrimSpace(raw.Tool.BinDir))
	}
	if meta.IsDefined("tool", "digest") {
		cfg.Tool.Digest = strings.TrimSpace(raw.Tool.Digest)
	}
	if meta.IsDefined("directories") {
		cfg.Directories = normalizeList(raw.Directories)
	}
	if meta.IsDefined("app", "entry") {
		cfg.App.Entry = strings.TrimSpace(raw.App.Entry)
	}
	if meta.IsDefined("app", "mode_flag") {
		cfg.App.ModeFlag = strings.TrimSpace(raw.App.ModeFlag)
	}
	if meta.IsDefined("app", "pause") {
		cfg.App.Pause = raw.App.Pause
	}
	if meta.IsDefined("reset", "targets") {
		cfg.Reset.Targets = make([]ResetTarget, 0, len(raw.Reset.Targets))
		for _, t := range raw.Reset.Targets {
			cfg.Reset.Targets = append(cfg.Reset.Targets, ResetTarget{
				Name: strings.TrimSpace(t.Name),
				Path: filepath.FromSlash(strings.TrimSpace(t.Path)),
			})
		}
	}
}

// Path resolves p against the workspace root unless it is absolute.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.WorkspaceRoot, p)
}

// Selected reports whether d applies to goos.
func (d Dependency) Selected(goos string) bool {
	for _, ex := range d.ExcludePlatforms {
		if strings.EqualFold(ex, goos) {
			return false
		}
	}
	if len(d.Platforms) == 0 {
		return true
	}
	for _, p := range d.Platforms {
		if strings.EqualFold(p, goos) {
			return true
		}
	}
	return false
}

// SelectDependencies filters deps for goos, preserving order.
func SelectDependencies(deps []Dependency, goos string) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Selected(goos) {
			out = append(out, d)
		}
	}
	return out
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.WorkspaceRoot) == "" {
		return fmt.Errorf("workspace root is required")
	}
	if cfg.Environment.Dir == "" {
		return fmt.Errorf("environment dir is required")
	}
	if cfg.Environment.Interpreter == "" {
		return fmt.Errorf("environment interpreter is required")
	}
	for i, d := range cfg.Dependencies {
		if d.Spec == "" {
			return fmt.Errorf("dependency[%d] missing spec", i)
		}
	}
	if err := ValidateTool(cfg.Tool); err != nil {
		return fmt.Errorf("tool invalid: %w", err)
	}
	for i, dir := range cfg.Directories {
		if filepath.IsAbs(dir) || !isWithin(filepath.Join(cfg.WorkspaceRoot, dir), cfg.WorkspaceRoot) {
			return fmt.Errorf("directory[%d] %q must be relative to the workspace", i, dir)
		}
	}
	if cfg.App.Entry == "" {
		return fmt.Errorf("app entry is required")
	}
	for i, t := range cfg.Reset.Targets {
		if t.Path == "" {
			return fmt.Errorf("reset target[%d] missing path", i)
		}
		if filepath.IsAbs(t.Path) || !isWithin(filepath.Join(cfg.WorkspaceRoot, t.Path), cfg.WorkspaceRoot) {
			return fmt.Errorf("reset target[%d] %q must stay inside the workspace", i, t.Path)
		}
		if filepath.Clean(t.Path) == "." {
			return fmt.Errorf("reset target[%d] may not be the workspace root", i)
		}
	}
	return nil
}

func ValidateTool(tool ToolConfig) error {
	if !isValidToolName(tool.Name) {
		return fmt.Errorf("name %q must be lowercase letters, digits, '-' or '_'", tool.Name)
	}
	if tool.Version == "" {
		return fmt.Errorf("version is required")
	}
	if !strings.HasPrefix(tool.URL, "https://") && !strings.HasPrefix(tool.URL, "http://") {
		return fmt.Errorf("url %q must be http(s)", tool.URL)
	}
	switch tool.Format {
	case "zip", "tar.gz", "tar.zst":
	default:
		return fmt.Errorf("unsupported archive format %q", tool.Format)
	}
	if tool.InstallPath == "" {
		return fmt.Errorf("install_path is required")
	}
	if tool.BinDir == "" || filepath.IsAbs(tool.BinDir) {
		return fmt.Errorf("bin_dir must be a relative path")
	}
	if tool.Digest != "" {
		algo, _, ok := strings.Cut(tool.Digest, ":")
		if !ok || (!strings.EqualFold(algo, "sha256") && !strings.EqualFold(algo, "blake3")) {
			return fmt.Errorf("digest %q must be sha256:<hex> or blake3:<hex>", tool.Digest)
		}
	}
	return nil
}

// isValidToolName keeps the name usable as a resource id segment and as a
// temp file prefix.
func isValidToolName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return name[0] != '-' && name[0] != '_' && name[len(name)-1] != '-' && name[len(name)-1] != '_'
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(os.PathSeparator)) && rel != "..")
}
