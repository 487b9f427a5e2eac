// Package process runs an external binary to completion while streaming its
// output.
//
// Runner wraps os/exec for one-shot invocations:
//   - The command string is split with a quote and backslash aware parser
//   - Output is read in chunks ending at a delimiter (ffmpeg's "size=")
//   - Every chunk must arrive within the timeout; the deadline restarts after
//     each chunk, so a long run that keeps reporting never times out
//   - On timeout or context cancellation the whole process group is killed
//     and reaped before Run returns
//   - Chunks are decoded, logged with a pluggable log parser and handed to a
//     callback on the goroutine that called Run
//
// Example:
//
//	r := process.NewRunner(logger, process.WithTimeout(30*time.Second))
//	res := r.Run(ctx, "ffmpeg -y -i in.mp4 out.mp4", func(chunk string) {
//	    fmt.Print(chunk)
//	})
//	if res.Status == process.StatusTimedOut {
//	    ...
//	}
package process
