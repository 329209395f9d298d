//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	Email       string
	Password    string
	CrmctlPath  string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIEndpoint: os.Getenv("CRM_TEST_API"),
		Email:       os.Getenv("CRM_TEST_EMAIL"),
		Password:    os.Getenv("CRM_TEST_PASSWORD"),
		CrmctlPath:  getCrmctlPath(),
		Verbose:     os.Getenv("CRM_TEST_VERBOSE") == "true",
	}
}

// getCrmctlPath determines the path to the crmctl binary
func getCrmctlPath() string {
	if path := os.Getenv("CRMCTL_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../crmctl",
		"./crmctl",
		"../crmctl",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "crmctl"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIEndpoint == "" || config.Email == "" || config.Password == "" {
		t.Skip("CRM_TEST_API, CRM_TEST_EMAIL or CRM_TEST_PASSWORD not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.CrmctlPath); err != nil {
		t.Skipf("crmctl binary not found at %s, skipping integration test", config.CrmctlPath)
	}
}

// CommandRunner runs crmctl against an isolated configuration file
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a crmctl command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a crmctl command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	full := append([]string{"--config", runner.configFile, "--api", runner.config.APIEndpoint}, args...)

	cmd := exec.Command(runner.config.CrmctlPath, full...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.CrmctlPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login opens a session for the configured account
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.Run("login", "--email", runner.config.Email, "--password", runner.config.Password)
	if err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupResource attempts to delete a test resource
func (runner *CommandRunner) CleanupResource(group, id string) {
	stdout, stderr, err := runner.Run(group, "delete", id, "--force")
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", group, id, stdout, stderr)
	}
}

// DecodeJSONOutput decodes the JSON printed by a command
func DecodeJSONOutput[T any](t *testing.T, output string) T {
	t.Helper()

	var value T

	require.NoError(t, json.Unmarshal([]byte(output), &value), "output is not valid JSON: %s", output)

	return value
}
