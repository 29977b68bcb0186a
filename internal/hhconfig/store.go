package hhconfig

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Bidon15/hardhatkit"
)

// Config is a configuration file loaded for editing.
type Config struct {
	Path     string
	Dialect  Dialect
	Exists   bool
	Original string
	Form     SourceForm
	Doc      Document
	Report   *ExtractReport
}

// Store loads and saves the configuration file of one Hardhat project.
type Store struct {
	dir       string
	extractor *Extractor
	logger    *slog.Logger
}

// NewStore creates a store for the project in dir. A nil extractor gets the
// default pipeline.
func NewStore(dir string, extractor *Extractor, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = NewExtractor(logger)
	}
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, extractor: extractor, logger: logger}
}

// Locate returns the configuration file path. hardhat.config.ts wins over
// hardhat.config.js; with neither present the JavaScript name is used.
func (s *Store) Locate() (string, bool) {
	for _, name := range []string{hardhatkit.ConfigFileTS, hardhatkit.ConfigFileJS} {
		p := filepath.Join(s.dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return filepath.Join(s.dir, hardhatkit.ConfigFileJS), false
}

// Read loads and extracts the configuration without side effects. Read
// errors are logged and yield an empty document.
func (s *Store) Read() *Config {
	path, exists := s.Locate()
	cfg := &Config{
		Path:    path,
		Dialect: DialectOf(path),
		Exists:  exists,
		Doc:     Document{},
		Report:  &ExtractReport{},
	}
	if !exists {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("failed to read existing config, starting from an empty configuration",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return cfg
	}
	cfg.Original = string(data)
	cfg.Doc, cfg.Report, cfg.Form = s.extractor.extract(newSource(cfg.Original, cfg.Dialect))
	return cfg
}

// Load reads the configuration for editing, first copying the file to its
// .backup sibling. A failed backup is logged and does not stop the load.
func (s *Store) Load() *Config {
	path, exists := s.Locate()
	if exists {
		if err := Backup(path); err != nil {
			s.logger.Warn("failed to back up config",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Debug("config backed up", slog.String("backup", path+hardhatkit.BackupSuffix))
		}
	}
	return s.Read()
}

// Save renders cfg and writes it back to cfg.Path, adding imports for the
// given plugins when missing.
func (s *Store) Save(cfg *Config, plugins ...string) error {
	data, err := Render(cfg, plugins...)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", hardhatkit.ErrConfigWrite, cfg.Path, err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(cfg.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(cfg.Path, data, mode); err != nil {
		return fmt.Errorf("%w: %w", hardhatkit.ErrConfigWrite, err)
	}
	s.logger.Info("config written",
		slog.String("path", cfg.Path),
		slog.String("strategy", cfg.Report.Strategy),
		slog.Bool("created", !cfg.Exists),
	)
	return nil
}

// Backup copies path to path.backup, replacing an older backup.
func Backup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", hardhatkit.ErrBackupFailed, err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path+hardhatkit.BackupSuffix, data, mode); err != nil {
		return fmt.Errorf("%w: %w", hardhatkit.ErrBackupFailed, err)
	}
	return nil
}
