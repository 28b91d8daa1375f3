// internal/commands/root_flags_test.go
package mneme

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwiater/mneme/internal/logging"
	"github.com/spf13/viper"
)

func resetFlag(cmdFlag string) {
	flag := rootCmd.PersistentFlags().Lookup(cmdFlag)
	if flag == nil {
		return
	}
	_ = flag.Value.Set(flag.DefValue)
	flag.Changed = false
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestPersistentPreRunEMergesConfigAndFlags(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mneme.log")
	configPath := writeTempConfig(t, `{
		"hosts": [{"name": "local", "url": "http://localhost:11434", "type": "ollama"}],
		"embeddingHost": "local",
		"embeddingModel": "nomic-embed-text",
		"embeddingDimensions": 768,
		"chatHost": "local",
		"chatModel": "llama3.2:3b",
		"topK": 5,
		"timeout": 42
	}`)

	prevCfgFile := cfgFile
	cfgFile = configPath
	viper.SetConfigFile(configPath)
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
	})
	t.Cleanup(func() { _ = logging.Close() })

	for _, name := range []string{"debug", "topK", "logFile"} {
		resetFlag(name)
	}
	_ = rootCmd.PersistentFlags().Set("debug", "true")
	_ = rootCmd.PersistentFlags().Set("logFile", logPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	if currentConfig == nil || currentConfig.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if !currentConfig.Debug {
		t.Fatalf("expected debug flag to flow into config: %+v", currentConfig)
	}
	if currentConfig.EmbeddingModel != "nomic-embed-text" || currentConfig.EmbeddingDimensions != 768 {
		t.Fatalf("expected config file values to load: %+v", currentConfig)
	}
	if currentConfig.TopK != 5 {
		t.Fatalf("expected topK from config file, got %d", currentConfig.TopK)
	}
	// The timeout key maps to TimeoutSeconds through its mapstructure tag;
	// without it the viper decode drops the value and the 600s default wins.
	if currentConfig.RequestTimeout() != 42*time.Second {
		t.Fatalf("expected timeout from config file, got %v", currentConfig.RequestTimeout())
	}
	if currentConfig.LogFilePath() != logPath {
		t.Fatalf("expected logFile flag to win, got %s", currentConfig.LogFilePath())
	}
	if err := currentConfig.Validate(); err != nil {
		t.Fatalf("merged config should validate: %v", err)
	}
}

func TestPersistentPreRunEToleratesMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	prevCfgFile := cfgFile
	cfgFile = missing
	// Fresh viper state so values from earlier tests cannot leak in.
	viper.Reset()
	viper.SetConfigFile(missing)
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("topK", rootCmd.PersistentFlags().Lookup("topK"))
	_ = viper.BindPFlag("logFile", rootCmd.PersistentFlags().Lookup("logFile"))
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
	})
	t.Cleanup(func() { _ = logging.Close() })

	for _, name := range []string{"debug", "topK", "logFile"} {
		resetFlag(name)
	}
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "mneme.log"))

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("missing config file should not fail prerun: %v", err)
	}

	// Commands needing a full configuration reject it at runtime assembly.
	if _, err := newRuntime(); err == nil {
		t.Fatal("expected newRuntime to reject an incomplete configuration")
	}
}
