// Package progress provides progress reporting for download runs.
//
// This package renders a live progress bar counting files, and prints the
// transferred volume and average speed when the run finishes.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    TotalFiles: len(tasks),
//	    Workers:    4,
//	    Output:     os.Stderr,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// From the workers
//	reporter.FileStarted()
//	reporter.BytesWritten(n)
//	reporter.FileSucceeded() // or FileSkipped, FileFailed
//
// # Output Format
//
//	[tlcfetch] Downloading: https://d37ci6vzurychx.cloudfront.net/trip-data/
//	[tlcfetch] Files: 244 | Workers: 4 | Destination: nyc_tlc_data
//	[tlcfetch] 120 ok, 3 skipped, 1 failed  51% |██████████          | (124/244 file, 2 file/s)
//	[tlcfetch] Transferred: 6.1 GiB in 4m 12s | Average speed: 24.8 MiB/s
package progress
