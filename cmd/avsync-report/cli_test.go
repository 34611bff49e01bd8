package main_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/farcloser/avsync/internal/testutils"
)

const header = "track_id\toffset_frames\toffset_seconds\tconfidence\n"

func outputTree(t *testing.T, runs map[string]string) string {
	t.Helper()

	dataDir := t.TempDir()
	for name, content := range runs {
		testutils.WriteFile(t, filepath.Join(dataDir, "pywork", name, "offsets.txt"), content, 0o600)
	}

	return dataDir
}

// expectArtifact checks the summary artifact written under dataDir.
func expectArtifact(dataDir string, fragments ...string) test.Comparator {
	return func(_ string, testing tig.T) {
		testing.Helper()

		content, err := os.ReadFile(filepath.Join(dataDir, "syncnet_summary_mean_by_linecount.txt"))
		if err != nil {
			testing.Log("summary artifact missing: " + err.Error())
			testing.Fail()

			return
		}

		for _, fragment := range fragments {
			if !strings.Contains(string(content), fragment) {
				testing.Log("summary artifact missing " + fragment + ":\n" + string(content))
				testing.Fail()
			}
		}
	}
}

func TestSummaryCLI(t *testing.T) {
	testCase := testutils.Setup(t, "avsync-report")

	twoRuns := outputTree(t, map[string]string{
		"a":      header + "0\t5\t0.2000\t0.91\n1\t-3\t-0.1200\t0.40\n",
		"b":      header + "0\t-2\t-0.0800\t0.30\n1\t4\t0.1600\t0.80\n",
		"broken": "garbage\n",
	})
	empty := outputTree(t, map[string]string{"only": "garbage\n"})

	testCase.SubTests = []*test.Case{
		{
			Description: "summary without a work tree fails",
			Command:     test.Command("summary", "--output_dir", t.TempDir()),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "summary without valid runs fails",
			Command:     test.Command("summary", "--output_dir", empty),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "summary averages ranks across runs",
			Command:     test.Command("summary", "--output_dir", twoRuns),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expect.Contains("line_count"),
				expectArtifact(twoRuns,
					"line count: 2\nruns (2): a, b\n",
					"1\t4.5000\t0.1800\t0.8550\t-\t2\n",
					"2\t-2.5000\t-0.1000\t0.3500\t-\t2\n",
					"excluded (no valid records): broken\n",
				),
			)),
		},
		{
			Description: "summary as json",
			Command:     test.Command("summary", "--output_dir", twoRuns, "--format", "json"),
			Expected:    test.Expects(expect.ExitCodeSuccess, nil, expect.Contains(`"line_count"`)),
		},
	}

	testCase.Run(t)
}

func TestInspectCLI(t *testing.T) {
	testCase := testutils.Setup(t, "avsync-report")

	dataDir := outputTree(t, map[string]string{
		"clip": header + "0\t5\t0.2000\t0.40\n1\t-3\t-0.1200\t0.91\n2\tabc\tx\ty\n",
		"bad":  "not an offsets file\n",
	})

	testCase.SubTests = []*test.Case{
		{
			Description: "inspect without arguments fails",
			Command:     test.Command("inspect"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "inspect ranks records and lists skipped lines",
			Command:     test.Command("inspect", filepath.Join(dataDir, "pywork", "clip", "offsets.txt")),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.Contains(
				"Skipped lines",
				"offset_frames is not an integer",
				"0.9100",
			)),
		},
		{
			Description: "inspect of a file with a wrong header fails",
			Command:     test.Command("inspect", filepath.Join(dataDir, "pywork", "bad", "offsets.txt")),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
