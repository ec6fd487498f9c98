package provision

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// scriptedExec records every command it receives and answers from a table of
// canned replies, defaulting to success.
type scriptedExec struct {
	commands []string
	replies  map[string]string
}

func (s *scriptedExec) exec(command string) string {
	s.commands = append(s.commands, command)

	for needle, reply := range s.replies {
		if strings.Contains(command, needle) {
			return reply
		}
	}

	return ""
}

func newTestRunner(exec ExecFunc) *Runner {
	r := NewRunner(exec, &bytes.Buffer{})
	r.sleep = func(time.Duration) {}
	return r
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	script := &scriptedExec{replies: map[string]string{
		"/eth/v1/node/health": "200",
	}}
	runner := newTestRunner(script.exec)

	failures := runner.Run()
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %+v", failures)
	}

	markers := []string{
		"sudo apt update && sudo apt upgrade -y",
		"sudo add-apt-repository -y ppa:ethereum/ethereum",
		"sudo cp lighthouse /usr/bin",
		"openssl rand -hex 32",
		"nohup geth --mainnet --syncmode snap",
		"nohup lighthouse beacon_node --network mainnet",
		"curl -s -o /dev/null",
		"web3_clientVersion",
	}

	last := -1
	for _, marker := range markers {
		idx := indexOfCommand(script.commands, marker)
		if idx < 0 {
			t.Fatalf("command containing %q was never issued", marker)
		}
		if idx <= last {
			t.Fatalf("command containing %q issued out of order", marker)
		}
		last = idx
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	script := &scriptedExec{replies: map[string]string{
		"sudo apt install -y ethereum": "Error: E: Unable to locate package ethereum",
		"/eth/v1/node/health":          "200",
	}}
	runner := newTestRunner(script.exec)

	failures := runner.Run()
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %+v", failures)
	}
	if failures[0].Step != "Geth and Lighthouse installation" {
		t.Fatalf("unexpected failing step: %s", failures[0].Step)
	}

	// Later steps still ran.
	if indexOfCommand(script.commands, "openssl rand -hex 32") < 0 {
		t.Fatal("JWT generation did not run after installation failure")
	}
	if indexOfCommand(script.commands, "nohup geth") < 0 {
		t.Fatal("geth start did not run after installation failure")
	}
}

func TestRunStopsOnErrorWhenConfigured(t *testing.T) {
	script := &scriptedExec{replies: map[string]string{
		"sudo apt update && sudo apt upgrade -y": "SSH Command Error: broken pipe",
	}}
	runner := newTestRunner(script.exec)
	runner.StopOnError = true

	failures := runner.Run()
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %+v", failures)
	}

	if indexOfCommand(script.commands, "add-apt-repository") >= 0 {
		t.Fatal("installation ran despite StopOnError")
	}
}

func TestWaitForConsensusPassesOnReady(t *testing.T) {
	script := &scriptedExec{replies: map[string]string{
		"/eth/v1/node/health": "206",
	}}
	runner := newTestRunner(script.exec)

	if err := runner.waitForConsensus(); err != nil {
		t.Fatalf("expected readiness, got %v", err)
	}
	if len(script.commands) != 1 {
		t.Fatalf("expected a single probe, got %d", len(script.commands))
	}
}

func TestWaitForConsensusTimesOut(t *testing.T) {
	script := &scriptedExec{replies: map[string]string{
		"/eth/v1/node/health": "000",
	}}
	runner := newTestRunner(script.exec)
	runner.maxWait = 20 * time.Millisecond
	runner.interval = 5 * time.Millisecond

	slept := 0
	runner.sleep = func(time.Duration) { slept++ }

	err := runner.waitForConsensus()
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !strings.Contains(err.Error(), "did not report ready") {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept == 0 {
		t.Fatal("poll never slept between probes")
	}
}

func TestRenderScriptFillsParameters(t *testing.T) {
	command, err := renderScript("geth.hbs", map[string]string{
		"dataDir":     "/data/eth",
		"authRPCPort": "8551",
		"jwtPath":     "/secrets/jwt.hex",
		"logFile":     "/data/eth/geth.log",
	})
	if err != nil {
		t.Fatalf("renderScript failed: %v", err)
	}

	for _, want := range []string{"--datadir /data/eth", "--authrpc.port 8551", "--authrpc.jwtsecret /secrets/jwt.hex", "> /data/eth/geth.log 2>&1 &"} {
		if !strings.Contains(command, want) {
			t.Fatalf("rendered command missing %q: %s", want, command)
		}
	}
	if strings.Contains(command, "{{") {
		t.Fatalf("unresolved template placeholders: %s", command)
	}
}

func indexOfCommand(commands []string, needle string) int {
	for i, command := range commands {
		if strings.Contains(command, needle) {
			return i
		}
	}
	return -1
}
