// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package deploy

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/botship/botship/internal/db"
	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/logging"
	"github.com/botship/botship/internal/manifest"
	"github.com/botship/botship/internal/model"
)

// RemoteDeployer is the subset of Deployer the deployment run needs. Tests
// inject fakes through NewDeployerFunc.
type RemoteDeployer interface {
	PushFile(localPath, remotePath string, mode fs.FileMode) error
	MkdirAll(dir string) error
	Run(command string) (string, error)
	Close()
}

// NewDeployerFunc creates the connection for a deployment run. It is a
// package variable so tests can swap in a fake without a live SSH server.
var NewDeployerFunc = func(target model.Target, auth Auth) (RemoteDeployer, error) {
	return NewDeployer(target, auth)
}

// RunDeployment pushes every manifest file to a single target and then runs
// the post-deploy commands. Each file transfer is attempted exactly
// m.Retries times with a fixed delay between tries; a file that exhausts its
// attempts is marked failed and the run moves on to the next file. There is
// no rollback. Post-deploy command failures are logged but never fail the
// run.
//
// A non-nil error means the run could not start (bad manifest, connection
// failure); per-file outcomes live in the returned DeployResult.
func RunDeployment(target model.Target, m *manifest.Manifest, auth Auth) (*model.DeployResult, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf(i18n.T("deploy.error_manifest"), err)
	}

	result := &model.DeployResult{
		Target:    target,
		StartedAt: time.Now(),
	}

	deployer, err := NewDeployerFunc(target, auth)
	if err != nil {
		_ = logAction("deploy_connect_failed", fmt.Sprintf("%s: %v", target.String(), err))
		return nil, fmt.Errorf(i18n.T("deploy.error_connection_failed"), target.String(), err)
	}
	defer deployer.Close()

	logging.Infof(i18n.T("deploy.start"), len(m.Files), target.String())

	for _, f := range m.Files {
		local := m.LocalPath(f)
		remote := m.RemotePath(f)

		mode, err := f.FileMode()
		if err != nil {
			result.Files = append(result.Files, model.FileResult{
				LocalPath:  local,
				RemotePath: remote,
				Status:     model.FileFailed,
				Attempts:   0,
				Err:        err,
			})
			recordFile(target, local, remote, model.FileFailed, 0, err)
			continue
		}

		attempt := 0
		attempts, err := withRetry(m.Retries, m.Delay(), func() error {
			attempt++
			pushErr := deployer.PushFile(local, remote, mode)
			if pushErr != nil && attempt < m.Retries {
				logging.Warnf(i18n.T("deploy.file_retry"), attempt, m.Retries, local, pushErr)
			}
			return pushErr
		})

		fr := model.FileResult{
			LocalPath:  local,
			RemotePath: remote,
			Attempts:   attempts,
			Err:        err,
		}
		if err != nil {
			fr.Status = model.FileFailed
			logging.Errorf(i18n.T("deploy.file_fail"), local, attempts, err)
		} else {
			fr.Status = model.FileDeployed
			logging.Infof(i18n.T("deploy.file_ok"), local, remote)
		}
		result.Files = append(result.Files, fr)
		recordFile(target, local, remote, fr.Status, attempts, err)
	}

	if len(m.Post) > 0 {
		logging.Infof(i18n.T("deploy.post_start"), len(m.Post), target.String())
		for _, cmd := range m.Post {
			if out, err := deployer.Run(cmd); err != nil {
				logging.Warnf(i18n.T("deploy.post_fail"), cmd, fmt.Errorf("%v: %s", err, out))
				_ = logAction("deploy_post_failed", fmt.Sprintf("%s: %q: %v", target.String(), cmd, err))
			} else {
				logging.Debugf(i18n.T("deploy.post_ok"), cmd)
			}
		}
	}

	result.Duration = time.Since(result.StartedAt)

	deployed, failed, skipped := result.Counts()
	logging.Infof(i18n.T("deploy.summary"), target.String(), deployed, failed, skipped)
	_ = logAction("deploy_run", fmt.Sprintf("%s: %d deployed, %d failed, %d skipped", target.String(), deployed, failed, skipped))

	return result, nil
}

// recordFile writes the per-file history row. History is best-effort; a
// write failure must not fail the deployment.
func recordFile(target model.Target, local, remote string, status model.FileStatus, attempts int, err error) {
	if !db.IsInitialized() {
		return
	}
	rec := model.DeploymentRecord{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Target:     target.String(),
		LocalPath:  local,
		RemotePath: remote,
		Status:     string(status),
		Attempts:   attempts,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if dbErr := db.RecordDeployment(rec); dbErr != nil {
		logging.Debugf("failed to record deployment history: %v", dbErr)
	}
}

// RunCommand opens a session on the target and executes a single command,
// returning its combined output. This backs `botship exec` and shares the
// connection path with deployments.
func RunCommand(target model.Target, auth Auth, command string) (string, error) {
	deployer, err := NewDeployerFunc(target, auth)
	if err != nil {
		return "", fmt.Errorf(i18n.T("exec.error_connection_failed"), target.String(), err)
	}
	defer deployer.Close()

	logging.Debugf(i18n.T("exec.running"), command, target.String())
	out, err := deployer.Run(command)
	if err != nil {
		_ = logAction("exec_failed", fmt.Sprintf("%s: %q: %v", target.String(), command, err))
		return out, fmt.Errorf(i18n.T("exec.error_command_failed"), err)
	}
	_ = logAction("exec", fmt.Sprintf("%s: %q", target.String(), command))
	return out, nil
}
