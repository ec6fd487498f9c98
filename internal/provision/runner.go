// Package provision runs the fixed sequence of remote commands that turns a
// freshly rented machine into an Ethereum snap node: it installs an
// execution client (geth) and a consensus client (lighthouse), generates a
// shared JWT secret, launches both as detached background processes and
// validates them.
//
// The sequence is best-effort: each step converts its failure into a message
// and the sequence continues, unless StopOnError is set.
package provision

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"time"

	"hyperagent/cmd/agent/config"

	"github.com/aymerick/raymond"
)

//go:embed scripts/*.hbs
var scripts embed.FS

// ExecFunc issues one remote command and returns the boundary string.
type ExecFunc func(command string) string

type StepFailure struct {
	Step    string
	Message string
}

type Runner struct {
	// StopOnError aborts the sequence at the first failed step instead of
	// continuing best-effort.
	StopOnError bool

	exec     ExecFunc
	out      io.Writer
	sleep    func(time.Duration)
	maxWait  time.Duration
	interval time.Duration
}

func NewRunner(exec ExecFunc, out io.Writer) *Runner {
	return &Runner{
		exec:     exec,
		out:      out,
		sleep:    time.Sleep,
		maxWait:  config.Config.ReadinessMaxWait,
		interval: config.Config.ReadinessInterval,
	}
}

// Run executes the provisioning sequence in fixed order and returns the
// failures encountered. An empty slice means every step passed.
func (r *Runner) Run() []StepFailure {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"system update and utilities installation", r.updateSystemAndUtilities},
		{"Geth and Lighthouse installation", r.installClients},
		{"JWT secret generation", r.generateJWTSecret},
		{"execution client start", r.startGeth},
		{"consensus client start", r.startLighthouse},
		{"node validation", r.validateConnection},
	}

	var failures []StepFailure

	for _, step := range steps {
		if err := step.fn(); err != nil {
			fmt.Fprintf(r.out, "Error during %s: %v\n", step.name, err)
			failures = append(failures, StepFailure{Step: step.name, Message: err.Error()})

			if r.StopOnError {
				return failures
			}
		}
	}

	return failures
}

// runAll issues commands in order and fails on the first one whose reply
// carries a boundary failure prefix.
func (r *Runner) runAll(commands []string) error {
	for _, command := range commands {
		if reply := r.exec(command); isFailureReply(reply) {
			return fmt.Errorf("%q failed: %s", command, strings.TrimSpace(reply))
		}
	}
	return nil
}

// isFailureReply recognizes the fixed failure prefixes of the string-valued
// command boundary.
func isFailureReply(reply string) bool {
	return strings.HasPrefix(reply, "Error:") || strings.HasPrefix(reply, "SSH ")
}

func (r *Runner) updateSystemAndUtilities() error {
	fmt.Fprintf(r.out, "\nUpdating the system and installing necessary utilities. This will take some time on a fresh machine.\n")

	err := r.runAll([]string{
		"sudo apt update && sudo apt upgrade -y",
		"sudo apt install -y curl wget openssl software-properties-common",
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nSystem updated and utilities installed!\n")
	return nil
}

func (r *Runner) installClients() error {
	fmt.Fprintf(r.out, "\nInstalling Geth and Lighthouse.\n")

	version := config.Config.LighthouseVersion
	tarball := fmt.Sprintf("lighthouse-%s-x86_64-unknown-linux-gnu.tar.gz", version)

	err := r.runAll([]string{
		"sudo add-apt-repository -y ppa:ethereum/ethereum",
		"sudo apt update",
		"sudo apt install -y ethereum",
		fmt.Sprintf("curl -LO https://github.com/sigp/lighthouse/releases/download/%s/%s", version, tarball),
		fmt.Sprintf("tar -xvf %s", tarball),
		"sudo cp lighthouse /usr/bin",
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nGeth and Lighthouse installation completed!\n")
	return nil
}

func (r *Runner) generateJWTSecret() error {
	fmt.Fprintf(r.out, "\nGenerating JWT secret.\n")

	err := r.runAll([]string{
		fmt.Sprintf("mkdir -p %s", config.Config.SecretsDir),
		fmt.Sprintf("openssl rand -hex 32 | tr -d '\\n' | sudo tee %s", config.Config.JWTSecretPath),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nJWT secret generated!\n")
	return nil
}

func (r *Runner) startGeth() error {
	fmt.Fprintf(r.out, "\nStarting Geth.\n")

	err := r.runAll([]string{
		fmt.Sprintf("mkdir -p %s", config.Config.NodeDataDir),
		fmt.Sprintf("touch %s", config.Config.GethLogPath),
	})
	if err != nil {
		return err
	}

	command, err := renderScript("geth.hbs", map[string]string{
		"dataDir":     config.Config.NodeDataDir,
		"authRPCPort": fmt.Sprintf("%d", config.Config.AuthRPCPort),
		"jwtPath":     config.Config.JWTSecretPath,
		"logFile":     config.Config.GethLogPath,
	})
	if err != nil {
		return err
	}

	if err := r.runAll([]string{command}); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nGeth is running!\n")
	return nil
}

func (r *Runner) startLighthouse() error {
	fmt.Fprintf(r.out, "\nStarting Lighthouse.\n")

	if err := r.runAll([]string{fmt.Sprintf("touch %s", config.Config.LighthouseLogPath)}); err != nil {
		return err
	}

	command, err := renderScript("lighthouse.hbs", map[string]string{
		"dataDir":     config.Config.NodeDataDir,
		"authRPCPort": fmt.Sprintf("%d", config.Config.AuthRPCPort),
		"jwtPath":     config.Config.JWTSecretPath,
		"logFile":     config.Config.LighthouseLogPath,
	})
	if err != nil {
		return err
	}

	if err := r.runAll([]string{command}); err != nil {
		return err
	}

	if err := r.waitForConsensus(); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nLighthouse is running!\n")
	return nil
}

// waitForConsensus polls the consensus client's health endpoint until it
// answers with a 2xx status, bounded by the configured maximum wait.
func (r *Runner) waitForConsensus() error {
	command := fmt.Sprintf("curl -s -o /dev/null -w '%%{http_code}' http://localhost:%d/eth/v1/node/health", config.Config.ConsensusAPIPort)

	deadline := time.Now().Add(r.maxWait)

	for {
		reply := strings.TrimSpace(r.exec(command))

		if !isFailureReply(reply) && strings.HasPrefix(reply, "2") {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("consensus client did not report ready within %s", r.maxWait)
		}

		r.sleep(r.interval)
	}
}

func (r *Runner) validateConnection() error {
	r.validateGeth()
	r.validateLighthouse()
	return nil
}

func (r *Runner) validateGeth() {
	fmt.Fprintf(r.out, "\nValidating Geth connection.\n")

	command := fmt.Sprintf(`curl -X POST -H "Content-Type: application/json" --data '{"jsonrpc":"2.0","method":"web3_clientVersion","params":[],"id":1}' http://localhost:%d`, config.Config.ExecutionRPCPort)

	r.narrateProbe("Geth", r.exec(command))
}

func (r *Runner) validateLighthouse() {
	fmt.Fprintf(r.out, "\nValidating Lighthouse connection.\n")

	command := fmt.Sprintf("curl -X GET http://localhost:%d/eth/v1/node/health", config.Config.ConsensusAPIPort)

	r.narrateProbe("Lighthouse", r.exec(command))
}

// narrateProbe prints a pass/fail line for a health probe. curl writes its
// progress meter to stderr, so a composite reply whose output segment is
// non-empty still counts as responding.
func (r *Runner) narrateProbe(client string, reply string) {
	if isFailureReply(reply) {
		if _, output, found := strings.Cut(reply, "\nOutput:"); found && strings.TrimSpace(output) != "" {
			fmt.Fprintf(r.out, "\n%s is running and responding properly: %s\n", client, strings.TrimSpace(output))
			return
		}
		fmt.Fprintf(r.out, "\n%s validation failed: %s\n", client, strings.TrimSpace(reply))
		return
	}

	fmt.Fprintf(r.out, "\n%s is running and responding properly: %s\n", client, strings.TrimSpace(reply))
}

func renderScript(name string, params map[string]string) (string, error) {
	raw, err := scripts.ReadFile("scripts/" + name)
	if err != nil {
		return "", err
	}

	tpl, err := raymond.Parse(string(raw))
	if err != nil {
		return "", err
	}

	command, err := tpl.Exec(params)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(command), nil
}
