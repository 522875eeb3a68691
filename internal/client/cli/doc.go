// Package cli provides the interactive CPD Vault command-line client.
//
// It wires configuration, the local entry store, the backend API client and
// an interactive REPL that supports online/offline operation. Typical flow:
// restore or prompt for credentials, start the background syncer and the
// connectivity watcher, and execute user commands.
//
// Key features:
//   - Register / Login / Logout (sessions survive restarts)
//   - Add, list, show, star and delete CPD entries
//   - Attach and fetch evidence files
//   - Transcribe voice notes into an entry's reflection text
//   - Manual sync and progress statistics
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
