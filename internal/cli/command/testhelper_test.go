package command

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPassphrase = "correct horse battery staple"

// testEnv is a sqlite-backed store directory with a fast-KDF config file.
type testEnv struct {
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`store:
  backend: sqlite
  data_dir: %s
security:
  kdf:
    time: 1
    memory_kib: 1024
    threads: 1
log:
  level: error
`, filepath.Join(dir, "data"))

	path := filepath.Join(dir, "securestore.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return &testEnv{dir: dir, configPath: path}
}

// run executes the CLI with the env's config and passphrase prepended.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	full := append([]string{"securestore-cli", "--config", e.configPath, "--passphrase", testPassphrase}, args...)
	return runApp(t, stdin, full...)
}

func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	err := app.Run(args)
	return stdout.String(), stderr.String(), err
}
