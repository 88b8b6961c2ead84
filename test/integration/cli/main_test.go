package cli_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/MeKo-Tech/droste/internal/testutil"
	"github.com/MeKo-Tech/droste/test/integration/cli/support"
	"github.com/cucumber/godog"
)

const binEnv = "DROSTE_TEST_BIN"

func initializeScenario(sc *godog.ScenarioContext) {
	tc, err := support.NewTestContext()
	if err != nil {
		panic(fmt.Sprintf("create test context: %v", err))
	}
	tc.RegisterCommonSteps(sc)
	tc.RegisterImageSteps(sc)
	tc.RegisterServerSteps(sc)

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if err := tc.Cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup: %v\n", err)
		}
		return ctx, nil
	})
}

// TestFeatures runs every feature file as its own subtest so failures are
// reported per file. GODOG_FORMAT and GODOG_TAGS tune the run.
func TestFeatures(t *testing.T) {
	features, err := filepath.Glob(filepath.Join("features", "*.feature"))
	if err != nil {
		t.Fatalf("glob features: %v", err)
	}
	if len(features) == 0 {
		t.Fatal("no .feature files found in features/")
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	for _, path := range features {
		t.Run(filepath.Base(path), func(t *testing.T) {
			suite := godog.TestSuite{
				Name:                filepath.Base(path),
				ScenarioInitializer: initializeScenario,
				Options: &godog.Options{
					Format:   format,
					Tags:     os.Getenv("GODOG_TAGS"),
					Paths:    []string{path},
					Strict:   true,
					TestingT: t,
				},
			}
			if status := suite.Run(); status != 0 {
				t.Fatalf("%s: godog exit status %d", path, status)
			}
		})
	}
}

// TestMain compiles cmd/droste into a temporary directory unless DROSTE_TEST_BIN
// already points at a binary, so scenarios never run a stale build.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	if bin := os.Getenv(binEnv); bin != "" {
		if _, err := os.Stat(bin); err == nil {
			return m.Run()
		}
	}

	root, err := testutil.ProjectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "locate project root: %v\n", err)
		return 1
	}
	dir, err := os.MkdirTemp("", "droste-bin-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create bin dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	name := "droste"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	bin := filepath.Join(dir, name)
	build := exec.CommandContext(context.Background(), "go", "build", "-o", bin, "./cmd/droste")
	build.Dir = root
	if out, err := build.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "build droste: %v\n%s\n", err, out)
		return 1
	}
	_ = os.Setenv(binEnv, bin)
	return m.Run()
}
