// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// package deploy provides functionality for connecting to robot targets
// via SSH and pushing manifest files onto them over SFTP.
package deploy // import "github.com/botship/botship/internal/deploy"

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/model"
)

// Auth carries the credentials used to reach a target. Exactly the methods
// that are set are tried, in order: password, private key file, SSH agent.
type Auth struct {
	// Password is tried first when non-empty. The slice is not retained.
	Password []byte

	// KeyFile is the path to a PEM private key, tried after the password.
	KeyFile string

	// Passphrase unlocks KeyFile when it is encrypted.
	Passphrase []byte
}

// Deployer handles the connection and file transfer to a single target.
type Deployer struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// verifyHostKey checks the key presented during the handshake against the
// key pinned in the database. Unknown and mismatching hosts abort the
// connection; there is no trust-on-first-use fallback.
func verifyHostKey(hostname string, key ssh.PublicKey) error {
	// The hostname passed to the callback can include the port; strip
	// it so the database lookup uses the bare host.
	host, _, err := net.SplitHostPort(hostname)
	if err != nil {
		host = hostname
	}

	presentedKey := string(ssh.MarshalAuthorizedKey(key))

	knownKey, err := db.GetKnownHostKey(host)
	if err != nil {
		return fmt.Errorf("failed to query known_hosts database: %w", err)
	}
	if knownKey == "" {
		return fmt.Errorf("unknown host key for %s. run 'botship trust-host' to add it", host)
	}
	if knownKey != presentedKey {
		return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", host, presentedKey)
	}
	return nil
}

// NewDeployer opens an SSH connection to the target and wires up SFTP.
// The target's host key must have been pinned with 'botship trust-host'
// beforehand; unknown or mismatching keys abort the connection.
func NewDeployer(target model.Target, auth Auth) (*Deployer, error) {
	hostKeyCallback := func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		return verifyHostKey(hostname, key)
	}

	addr := target.Addr()
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	var methods []ssh.AuthMethod
	if len(auth.Password) > 0 {
		// Copy: the ssh package may call the callback after the caller
		// has zeroed its slice.
		pass := string(auth.Password)
		methods = append(methods, ssh.PasswordCallback(func() (string, error) {
			return pass, nil
		}))
	}
	if auth.KeyFile != "" {
		signer, err := loadSigner(auth.KeyFile, auth.Passphrase)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if agentClient := getSSHAgent(); agentClient != nil {
		methods = append(methods, ssh.PublicKeysCallback(agentClient.Signers))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no authentication method available (no password or key provided and no ssh agent found)")
	}

	config := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         DefaultConnectionTimeout,
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("connection to %s failed: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return &Deployer{client: client, sftp: sftpClient}, nil
}

// loadSigner reads and parses a private key file, decrypting it with the
// passphrase when one is given.
func loadSigner(keyFile string, passphrase []byte) (ssh.Signer, error) {
	pem, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key %s: %w", keyFile, err)
	}
	if len(passphrase) > 0 {
		signer, err := ssh.ParsePrivateKeyWithPassphrase(pem, passphrase)
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}
		return signer, nil
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}
	return signer, nil
}

// PushFile uploads a local file to remotePath and moves it into place
// atomically. The upload goes to a temporary name in the destination
// directory first so a half-written file is never observed by the robot
// software. Parent directories are created as needed.
func (d *Deployer) PushFile(localPath, remotePath string, mode fs.FileMode) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer src.Close()

	dir := path.Dir(remotePath)
	if err := d.MkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
	}

	// Upload to a temporary file in the same directory for atomic rename.
	tmpPath := path.Join(dir, fmt.Sprintf(".%s.botship.%d", path.Base(remotePath), time.Now().UnixNano()))
	f, err := d.sftp.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file on remote: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		// Best effort to clean up the failed upload.
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to write to temporary file on remote: %w", err)
	}
	f.Close()

	if err := d.sftp.Chmod(tmpPath, mode); err != nil {
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}

	// sftp rename fails on some servers when the destination exists;
	// PosixRename overwrites like rename(2).
	if err := d.sftp.PosixRename(tmpPath, remotePath); err != nil {
		_ = d.sftp.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", remotePath, err)
	}

	return nil
}

// MkdirAll creates a remote directory and any missing parents.
func (d *Deployer) MkdirAll(dir string) error {
	if dir == "" || dir == "/" || dir == "." {
		return nil
	}
	if info, err := d.sftp.Stat(dir); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	if err := d.MkdirAll(path.Dir(dir)); err != nil {
		return err
	}
	if err := d.sftp.Mkdir(dir); err != nil {
		// A concurrent mkdir or an sftp server returning a generic
		// failure for an existing directory both stat clean.
		if info, statErr := d.sftp.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return err
	}
	return nil
}

// Run executes a command on the target and returns its combined output.
// The exit status is folded into the returned error.
func (d *Deployer) Run(command string) (string, error) {
	session, err := d.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out

	if err := session.Run(command); err != nil {
		return out.String(), fmt.Errorf("remote command %q failed: %w", command, err)
	}
	return out.String(), nil
}

// Close closes the underlying SSH and SFTP clients.
func (d *Deployer) Close() {
	if d.sftp != nil {
		d.sftp.Close()
	}
	if d.client != nil {
		d.client.Close()
	}
}

// GetRemoteHostKey connects to a host just to retrieve its public key.
func GetRemoteHostKey(host string) (ssh.PublicKey, error) {
	keyChan := make(chan ssh.PublicKey, 1)

	config := &ssh.ClientConfig{
		// No authentication needed, just start the handshake.
		User: "botship-probe",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			// We got the key; send it back on the channel and return a
			// specific error to gracefully stop the handshake.
			keyChan <- key
			return fmt.Errorf("botship: successfully retrieved host key")
		},
		Timeout: 5 * time.Second,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	// ssh.Dial is expected to fail with our specific error.
	_, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if strings.Contains(err.Error(), "botship: successfully retrieved host key") {
			return <-keyChan, nil
		}
		// A different, real error (e.g., connection refused).
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	return nil, fmt.Errorf("ssh.Dial succeeded unexpectedly, could not retrieve key")
}
