// Package harness provides test harness infrastructure for validating the
// linters end to end against YAML-described class sets.
package harness

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/classlint/pkg/classfile"
	"github.com/715d/classlint/pkg/classlint"
	"github.com/715d/classlint/pkg/config"
	"github.com/715d/classlint/pkg/lint"
)

// Configuration is one linter configuration to run against the classes of a
// test case.
type Configuration struct {
	// Name is a descriptive name for this configuration.
	Name string `yaml:"name"`

	// Config is the configuration text. Empty runs Linters on every class.
	Config string `yaml:"config,omitempty"`

	// Format is yaml, toml or lines. Defaults to lines.
	Format string `yaml:"format,omitempty"`

	// Linters run on every class when Config is empty.
	Linters []string `yaml:"linters,omitempty"`

	// ExpectedFindings lists every finding the run must produce.
	ExpectedFindings []ExpectedFinding `yaml:"expected_findings"`

	// ExpectedErrors lists expected error message fragments.
	ExpectedErrors []string `yaml:"expected_errors"`
}

// TestCase represents a single test scenario.
type TestCase struct {
	// Dir is the directory containing the test case.
	Dir string `yaml:"-"`

	// Description says what the case covers.
	Description string `yaml:"description,omitempty"`

	// Classes are written as class files before each configuration runs.
	Classes []ClassSpec `yaml:"classes"`

	// Configurations defines the linter configurations to test.
	Configurations []Configuration `yaml:"configurations"`
}

// ExpectedFinding represents a finding the linters must report.
type ExpectedFinding struct {
	Linter string `yaml:"linter"`
	// Class accepts dotted or internal names.
	Class  string `yaml:"class"`
	Member string `yaml:"member,omitempty"`
	Line   int    `yaml:"line,omitempty"`
	// Message, when set, must be contained in the reported message.
	Message    string `yaml:"message,omitempty"`
	Suppressed bool   `yaml:"suppressed,omitempty"`
}

func (e ExpectedFinding) key() string {
	return findingKey(e.Linter, classfile.InternalName(e.Class), e.Member, e.Line)
}

func findingKey(linter, class, member string, line int) string {
	return fmt.Sprintf("%s %s#%s:%d", linter, class, member, line)
}

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case with all its configurations.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.Configurations, "test case has no configurations")

	batch := LoadBatch(t, WriteClasses(t, tc))
	require.Empty(t, batch.Failures, "generated classes must parse")

	var results []ConfigurationResult
	var allSuccess = true

	// Run each configuration.
	for _, cfg := range tc.Configurations {
		cfgResult := h.runConfiguration(t, batch, cfg)
		results = append(results, *cfgResult)
		if !cfgResult.Success {
			allSuccess = false
		}
	}

	// Create overall result message.
	var resultMsg string
	if allSuccess {
		resultMsg = fmt.Sprintf("All %d configurations passed", len(tc.Configurations))
	} else {
		failedCount := 0
		var msgs []string
		for _, cr := range results {
			if !cr.Success {
				failedCount++
				msgs = append(msgs, fmt.Sprintf("[%s] %s:\n  %s",
					cr.Configuration.Name, cr.Message, strings.Join(cr.Details, "\n  ")))
			}
		}
		resultMsg = fmt.Sprintf("%d/%d configurations failed:\n%s",
			failedCount, len(tc.Configurations), strings.Join(msgs, "\n"))
	}

	return &TestResult{
		TestCase:             tc,
		ConfigurationResults: results,
		Success:              allSuccess,
		Message:              resultMsg,
	}
}

func parseFormat(name string) (config.Format, error) {
	switch strings.ToLower(name) {
	case "", "lines":
		return config.FormatLines, nil
	case "yaml", "yml":
		return config.FormatYAML, nil
	case "toml":
		return config.FormatTOML, nil
	}
	return 0, fmt.Errorf("unknown config format %q", name)
}

// runConfiguration executes analysis for a single configuration.
func (h *TestHarness) runConfiguration(t *testing.T, batch *classfile.Batch, cfg Configuration) *ConfigurationResult {
	t.Helper()
	result, err := analyze(t, batch, cfg)
	if err != nil {
		// Check if this error was expected.
		for _, expectedErr := range cfg.ExpectedErrors {
			if strings.Contains(err.Error(), expectedErr) {
				return &ConfigurationResult{
					Configuration: cfg,
					Success:       true,
					Message:       fmt.Sprintf("Got expected error: %v", err),
				}
			}
		}
		require.NoError(t, err)
	}
	return h.validateConfigurationResults(cfg, result)
}

func analyze(t *testing.T, batch *classfile.Batch, cfg Configuration) (*classlint.Result, error) {
	t.Helper()
	lintCfg := config.ForLinters(cfg.Linters...)
	if cfg.Config != "" {
		format, err := parseFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		if lintCfg, err = config.Parse([]byte(cfg.Config), format); err != nil {
			return nil, err
		}
	}
	analyzer, err := classlint.NewAnalyzer(classlint.AnalyzerOptions{Config: lintCfg})
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(t.Context(), batch)
}

// validateConfigurationResults compares actual results with expected for a
// specific configuration.
func (h *TestHarness) validateConfigurationResults(cfg Configuration, result *classlint.Result) *ConfigurationResult {
	cfgResult := ConfigurationResult{
		Configuration: cfg,
		Result:        result,
	}

	// First validate the configuration has valid expected findings.
	if err := validateExpectedFindings(cfg.ExpectedFindings); err != nil {
		cfgResult.Success = false
		cfgResult.Message = fmt.Sprintf("Invalid expected.yaml: %v", err)
		cfgResult.Details = []string{err.Error()}
		return &cfgResult
	}

	var details []string
	for _, e := range result.Errors {
		details = append(details, "Unexpected linter error: "+e.Error())
	}
	validateResults(&cfgResult, cfg.ExpectedFindings, result.Findings)
	if len(details) > 0 {
		cfgResult.Success = false
		cfgResult.Details = append(details, cfgResult.Details...)
	}
	return &cfgResult
}

// ConfigurationResult represents the result of running a single configuration.
type ConfigurationResult struct {
	// Configuration is the configuration that was run.
	Configuration Configuration

	// Result is the raw result from the analyzer.
	Result *classlint.Result

	// Success indicates if this configuration passed.
	Success bool

	// Message provides a summary of the result for this configuration.
	Message string

	// Details provides detailed information about failures for this configuration.
	Details []string
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// ConfigurationResults contains results for each configuration.
	ConfigurationResults []ConfigurationResult

	// Success indicates if the test passed (all configurations passed)
	Success bool

	// Message provides a summary of the result.
	Message string
}

// validateExpectedFindings validates that expected findings have required fields
func validateExpectedFindings(expected []ExpectedFinding) error {
	for i, exp := range expected {
		if strings.TrimSpace(exp.Linter) == "" {
			return fmt.Errorf("expected finding at index %d has empty or missing 'linter' field", i)
		}
		if strings.TrimSpace(exp.Class) == "" {
			return fmt.Errorf("expected finding at index %d has empty or missing 'class' field", i)
		}
	}
	return nil
}

// validateResults pairs expected and actual findings sharing a key. Several
// findings may share a key, so each expected finding consumes one actual
// finding, preferring one whose message and suppression state both match.
func validateResults(cfgResult *ConfigurationResult, expected []ExpectedFinding, actual []lint.Finding) {
	expectedByKey := make(map[string][]ExpectedFinding)
	for _, e := range expected {
		expectedByKey[e.key()] = append(expectedByKey[e.key()], e)
	}

	actualByKey := make(map[string][]lint.Finding)
	for _, a := range actual {
		key := findingKey(a.Linter, a.Class, a.Member, a.Line)
		actualByKey[key] = append(actualByKey[key], a)
	}

	keys := make(map[string]struct{}, len(expectedByKey)+len(actualByKey))
	for key := range expectedByKey {
		keys[key] = struct{}{}
	}
	for key := range actualByKey {
		keys[key] = struct{}{}
	}

	var missing, unexpected, mismatches []string
	for key := range keys {
		exps, acts := expectedByKey[key], actualByKey[key]
		used := make([]bool, len(acts))
		var unpaired []ExpectedFinding

		for _, exp := range exps {
			if i := pick(acts, used, func(act lint.Finding) bool {
				return messageMatches(exp, act) && exp.Suppressed == act.Suppressed
			}); i < 0 {
				unpaired = append(unpaired, exp)
			}
		}

		for _, exp := range unpaired {
			i := pick(acts, used, func(lint.Finding) bool { return true })
			if i < 0 {
				missing = append(missing, fmt.Sprintf("%s (%s)", key, exp.Message))
				continue
			}
			act := acts[i]
			if !messageMatches(exp, act) {
				mismatches = append(mismatches, fmt.Sprintf(
					"Message mismatch for %s: expected to contain %q, got %q", key, exp.Message, act.Message))
			}
			if exp.Suppressed != act.Suppressed {
				mismatches = append(mismatches, fmt.Sprintf(
					"Suppression mismatch for %s: expected %v, got %v", key, exp.Suppressed, act.Suppressed))
			}
		}

		for i, act := range acts {
			if !used[i] {
				unexpected = append(unexpected, act.String())
			}
		}
	}

	// Sort for consistent output.
	sort.Strings(missing)
	sort.Strings(unexpected)
	sort.Strings(mismatches)

	var details []string
	for _, m := range missing {
		details = append(details, "Should have been reported: "+m)
	}
	for _, u := range unexpected {
		details = append(details, "Should not have been reported: "+u)
	}
	details = append(details, mismatches...)

	success := len(details) == 0
	var message string
	if success {
		message = fmt.Sprintf("All %d expected findings reported", len(expected))
	} else {
		message = fmt.Sprintf("Test failed: %d missing, %d unexpected", len(missing), len(unexpected))
	}

	cfgResult.Success = success
	cfgResult.Message = message
	cfgResult.Details = details
}

func messageMatches(exp ExpectedFinding, act lint.Finding) bool {
	return exp.Message == "" || strings.Contains(act.Message, exp.Message)
}

// pick marks and returns the first unused finding satisfying ok, or -1.
func pick(acts []lint.Finding, used []bool, ok func(lint.Finding) bool) int {
	for i, act := range acts {
		if !used[i] && ok(act) {
			used[i] = true
			return i
		}
	}
	return -1
}
