/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package executor runs asynchronous tasks under two simultaneous constraints:
// a cap on the number of concurrently running tasks and a cap on the number of
// tasks started within any trailing time window.
//
// Tasks are admitted in submission order. Every task gets its own Future that
// settles with the task's value or error, independently of all other tasks.
// Drain is a barrier that waits until nothing is queued or running.
//
//	exec, err := executor.New(executor.NewDefaultConfig(), executor.Opts{Logger: logger})
//	if err != nil {
//		return err
//	}
//	fut := executor.Submit(exec, ctx, func(ctx context.Context) (string, error) {
//		return client.CreateKey(ctx, projectID, name)
//	})
//	if err = exec.Drain(ctx); err != nil {
//		return err
//	}
//	keyID, err := fut.Result()
package executor
