package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: kind", utils.ErrorInvalidRequest), 2},
		{utils.ErrorNoCompanyFound, 3},
		{utils.ErrorNoRowsFound, 4},
		{utils.ErrorNoHistoricalData, 4},
		{utils.ErrorConversionFailed, 1},
		{fmt.Errorf("%w: req-1", utils.ErrorArtifactExists), 5},
		{errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v)=%d want %d", tc.err, got, tc.want)
		}
	}
}

func TestEnqueue_RejectsUnknownKindBeforePublishing(t *testing.T) {
	cmd := enqueueCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--meeting", "RCM-1", "--kind", "memo"})
	err := cmd.Execute()
	if utils.ErrorKindOf(err) != utils.ErrorKindInvalidRequest {
		t.Fatalf("err=%v", err)
	}
	if out.Len() != 0 && strings.Contains(out.String(), "messageId") {
		t.Fatalf("published: %s", out.String())
	}
}

func TestKindNames(t *testing.T) {
	names := kindNames()
	for _, want := range []string{"agenda", "rating_sheet", "mom", "provisional_communication"} {
		if !strings.Contains(names, want) {
			t.Fatalf("kindNames()=%q missing %s", names, want)
		}
	}
}
