// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"sync"

	"github.com/botship/botship/internal/i18n"
	"github.com/botship/botship/internal/model"
)

// parallelTask defines a generic task to be executed in parallel across
// multiple targets. It holds configuration for messaging, logging, and the
// core task function to be executed.
type parallelTask struct {
	name       string // e.g., "deployment", "exec"
	startMsg   string // pre-formatted by i18n
	successMsg string // e.g., "✅ Successfully deployed to %s"
	failMsg    string // e.g., "💥 Failed to deploy to %s: %s"
	successLog string // e.g., "CLI_DEPLOY_SUCCESS"
	failLog    string // e.g., "CLI_DEPLOY_FAIL"
	taskFunc   func(model.Target) error
}

// runParallelTasks executes a given task concurrently for a list of targets.
// Targets are distinct hosts, so running them in parallel cannot race on
// remote files; within one target the task itself stays sequential. Returns
// the number of failed targets.
func runParallelTasks(targets []model.Target, task parallelTask) int {
	if len(targets) == 0 {
		fmt.Println(i18n.T("parallel_task.no_targets", task.name))
		return 0
	}

	var wg sync.WaitGroup
	results := make(chan error, len(targets))
	lines := make(chan string, len(targets))

	fmt.Println(task.startMsg)

	for _, t := range targets {
		wg.Add(1)
		go func(target model.Target) {
			defer wg.Done()
			err := task.taskFunc(target)
			details := fmt.Sprintf("target: %s", target.String())
			if err != nil {
				lines <- failStyle.Render(fmt.Sprintf(task.failMsg, target.String(), err.Error()))
				_ = logAction(task.failLog, fmt.Sprintf("%s, error: %v", details, err))
			} else {
				lines <- okStyle.Render(fmt.Sprintf(task.successMsg, target.String()))
				_ = logAction(task.successLog, details)
			}
			results <- err
		}(t)
	}

	go func() {
		wg.Wait()
		close(lines)
		close(results)
	}()

	for line := range lines {
		fmt.Println(line)
	}

	failed := 0
	for err := range results {
		if err != nil {
			failed++
		}
	}
	fmt.Println("\n" + i18n.T("parallel_task.complete_message", task.name))
	return failed
}
