package remote

// Credentials represents different types of SSH authentication
type Credentials struct {
	Host     string
	Port     uint
	Username string
	// Password authentication
	Password string
	// Key-based authentication
	PrivateKeyPath string
	// Passphrase for private key (if encrypted)
	Passphrase string
}

// CommandResult carries the raw output streams of a remote command.
// Streams are not trimmed: callers own the exact bytes the command produced.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}
