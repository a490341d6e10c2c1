package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// PathResolver locates corpus, dictionary, and config files relative to the
// running binary, so the tool works no matter where it is invoked from.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver resolves the executable location, following symlinks, and
// picks the platform config directory.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}
	execDir := filepath.Dir(execPath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = "/tmp"
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  execDir,
		homeDir:        homeDir,
		configDir:      getConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: exec=%s, execDir=%s, configDir=%s",
		execPath, execDir, pr.configDir)
	return pr, nil
}

// getConfigDir returns the platform config directory.
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", "wsrs")
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "wsrs")
		}
		return filepath.Join(homeDir, ".config", "wsrs")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "wsrs")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "wsrs")
	default:
		return filepath.Join(homeDir, ".wsrs")
	}
}

// GetCorpusDir resolves the directory holding corpus shards. Candidates are
// tried in order: the path as given when absolute, then relative to the
// executable, then relative to the working directory, then a few common
// spots. The first candidate actually containing shard files wins; when none
// does, the executable-relative path is returned for error reporting.
func (pr *PathResolver) GetCorpusDir(userPath string) (string, error) {
	var candidates []string
	if filepath.IsAbs(userPath) {
		candidates = append(candidates, userPath)
	}
	execRelative := filepath.Join(pr.executableDir, userPath)
	candidates = append(candidates, execRelative)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, userPath))
	}
	candidates = append(candidates,
		filepath.Join(pr.executableDir, "corpus"),
		filepath.Join(filepath.Dir(pr.executableDir), "corpus"),
		filepath.Join(pr.configDir, "corpus"),
	)

	for _, path := range candidates {
		if pr.isValidCorpusDir(path) {
			log.Debugf("Found valid corpus directory: %s", path)
			return path, nil
		}
		log.Debugf("Corpus directory candidate not valid: %s", path)
	}
	return execRelative, nil
}

// isValidCorpusDir checks whether a directory holds at least one shard file.
func (pr *PathResolver) isValidCorpusDir(path string) bool {
	if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
		return false
	}
	for _, pattern := range []string{"*.jsonl", "*.json", "*.jsonl.gz", "*.json.gz"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

// ResolveFile locates a single input file such as the dictionary CSV, trying
// the path as given, then relative to the working directory, then relative
// to the executable.
func (pr *PathResolver) ResolveFile(path string) (string, bool) {
	if filepath.IsAbs(path) {
		return path, FileExists(path)
	}
	if cwd, err := os.Getwd(); err == nil {
		if candidate := filepath.Join(cwd, path); FileExists(candidate) {
			return candidate, true
		}
	}
	if candidate := filepath.Join(pr.executableDir, path); FileExists(candidate) {
		return candidate, true
	}
	return path, FileExists(path)
}

// GetConfigPath returns the full path for a config file, falling back to
// writable locations when the preferred config directory is not usable.
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	configPath := filepath.Join(pr.configDir, filename)
	if pr.ensureConfigDir(pr.configDir) {
		return configPath, nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, ".wsrs"),
		filepath.Join(os.TempDir(), "wsrs"),
		pr.executableDir,
	}
	for _, dir := range fallbackDirs {
		if pr.ensureConfigDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath, nil
}

// ensureConfigDir creates the directory if needed and tests writability.
func (pr *PathResolver) ensureConfigDir(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Debugf("Cannot create config directory %s: %v", dir, err)
		return false
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		log.Debugf("Config directory %s is not writable: %v", dir, err)
		return false
	}
	os.Remove(testFile)
	return true
}

// GetExecutablePath returns the full path to the executable.
func (pr *PathResolver) GetExecutablePath() string {
	return pr.executablePath
}
