package backend

import (
	"fmt"

	"moneyrider/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type: backendType,

		AccountsFile: appConfig.AccountsFile,
		UsersDir:     appConfig.UsersDir,

		SQLiteDBPath: appConfig.SQLiteDBPath,
	}

	// Memory backend starts from the file layout when one is configured
	if backendType == MemoryBackend && appConfig.AccountsFile != "" && appConfig.UsersDir != "" {
		cfg.SeedAccountsFile = appConfig.AccountsFile
		cfg.SeedUsersDir = appConfig.UsersDir
	}

	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.AccountsFile == "" {
			return fmt.Errorf("accounts file is required for file backend")
		}
		if c.UsersDir == "" {
			return fmt.Errorf("users directory is required for file backend")
		}

	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}

	case MemoryBackend:
		if (c.SeedAccountsFile == "") != (c.SeedUsersDir == "") {
			return fmt.Errorf("memory backend seeding needs both accounts file and users directory")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
