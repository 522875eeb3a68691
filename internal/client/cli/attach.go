package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/cpdvault/internal/client/models"
	"github.com/dmitrijs2005/cpdvault/internal/filex"
	"github.com/dmitrijs2005/cpdvault/internal/netx"
)

// downloadDirName is where fetched evidence files are staged, relative to the
// working directory.
const downloadDirName = "downloads"

// attach uploads a local file as evidence for an entry. The object store is
// reached directly through a presigned URL, so attaching requires a session
// and connectivity.
func (a *App) attach(ctx context.Context) {

	if !a.isLoggedIn() {
		fmt.Println("Attaching evidence requires being logged in.")
		return
	}

	id, err := getSimpleText(a.reader, "Enter entry id", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	entry, err := a.entryService.Get(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	path, err := getSimpleText(a.reader, "Path to evidence file", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading file: %s", err.Error())
		return
	}

	key, url, err := a.remote.PresignPut(ctx)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	if err := netx.UploadToPresignedURL(ctx, url, data); err != nil {
		log.Printf("Upload failed: %s", err.Error())
		return
	}

	entry.Evidence = append(entry.Evidence, models.EvidenceRef{
		StorageKey: key,
		FileName:   filepath.Base(path),
	})

	if err := a.entryService.Update(ctx, entry); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	fmt.Printf("Attached %s\n", filepath.Base(path))
}

// fetch downloads a previously attached evidence file into the downloads
// staging directory.
func (a *App) fetch(ctx context.Context) {

	if !a.isLoggedIn() {
		fmt.Println("Fetching evidence requires being logged in.")
		return
	}

	id, err := getSimpleText(a.reader, "Enter entry id", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	entry, err := a.entryService.Get(ctx, id)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	if len(entry.Evidence) == 0 {
		fmt.Println("This entry has no evidence attached.")
		return
	}

	for i, ev := range entry.Evidence {
		fmt.Printf("  %d. %s\n", i+1, ev.FileName)
	}

	choice, err := getSimpleText(a.reader, "File to fetch (number, empty for 1)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	idx := 1
	if choice != "" {
		if _, err := fmt.Sscanf(choice, "%d", &idx); err != nil || idx < 1 || idx > len(entry.Evidence) {
			log.Printf("bad choice %q", choice)
			return
		}
	}
	ev := entry.Evidence[idx-1]

	url, err := a.remote.PresignGet(ctx, ev.StorageKey)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	data, err := netx.DownloadFromPresignedURL(ctx, url)
	if err != nil {
		log.Printf("Download failed: %s", err.Error())
		return
	}

	dir, err := filex.EnsureSubDir(downloadDirName)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	dest := filepath.Join(dir, ev.FileName)
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		log.Printf("Error writing file: %s", err.Error())
		return
	}

	fmt.Printf("Saved %s (%d bytes)\n", dest, len(data))
}
