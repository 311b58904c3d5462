// Package stress runs pools of workers that keep a machine busy with CPU
// or memory load and tracks how many iterations they complete.
//
// # Isolation
//
// A Worker's loop never checks for cancellation between iterations on its
// own behalf, so stopping one has to be forced from outside. Two launchers
// provide that:
//
//   - ProcessLauncher re-executes the current binary as a child process per
//     worker. Stop sends SIGKILL; the kernel reclaims everything the child
//     held, including an in-flight allocation. On Linux children are also
//     started with a parent-death signal so they do not outlive the pool.
//     Progress is reported over the child's stdout as JSON lines.
//   - GoroutineLauncher runs the loop in a goroutine with its own context.
//     Units observe that context at a bounded granularity (every 64Ki
//     random values, every MiB of memory touched), so a stop takes effect
//     mid-iteration. An abandoned allocation is left to the garbage
//     collector.
//
// Iterations are counted after they complete, so a worker killed right
// after finishing one may have it counted even though its pause never ran.
package stress
