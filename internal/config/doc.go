// Package config defines configuration structures for the tlcfetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (TLCFETCH_ prefix), optionally loaded from a
//     dotenv file
//   - YAML configuration file
//
// Flags override the environment, which overrides the file, which
// overrides Default.
//
// # Example
//
//	dest: s3://tlc-archive?region=us-east-1
//	categories: [yellow, green]
//	years: 2
//	workers: 8
//	chunk_size: 64KiB
//	retry:
//	  attempts: 5
//	  backoff: 2s
//	log:
//	  level: debug
//	  format: json
package config
