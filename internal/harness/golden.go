package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its transcript against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Infrastructure failures return an error; transcript mismatches and
// expectation violations fail the test.
func RunWithGolden(t *testing.T, scn *Scenario) error {
	t.Helper()

	transcript, err := Run(scn)
	if err != nil {
		return err
	}

	if transcript.Failed() {
		for _, failure := range transcript.Failures {
			t.Errorf("scenario %q: %s", scn.Name, failure)
		}
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scn.Name, data)
	return nil
}
