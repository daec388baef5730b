package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Jumpaku/go-drivemap"
	"github.com/Jumpaku/go-drivemap/download"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderURL = "https://drive.google.com/drive/folders/0ADHyXmFLm9riUk9PVA"

func newStore(ctx context.Context) *drivemap.Store {
	client, err := google.DefaultClient(ctx,
		drive.DriveScope,
	)
	if err != nil {
		log.Panic(err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Panic(err)
	}
	store, err := drivemap.NewStore(driveService, folderURL, drivemap.WithMaxLevels(2))
	if err != nil {
		log.Panic(err)
	}
	return store
}

var sc = func() *bufio.Scanner {
	sc := bufio.NewScanner(os.Stdin)
	sc.Split(bufio.ScanLines)
	return sc
}()

func step() {
	sc.Scan()
}

func main() {
	ctx := context.Background()
	store := newStore(ctx)

	// List the keys of the folder
	keys, err := store.Keys(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, key := range keys {
		fmt.Println(key)
	}

	// Write a value, creating path/to
	step()
	if err := store.Set(ctx, "path/to/example.txt", []byte("Hello, Google Drive!")); err != nil {
		log.Fatal(err)
	}

	// Read it back
	step()
	data, err := store.Get(ctx, "path/to/example.txt")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(data))

	// Share it with anyone holding the link
	step()
	link, err := store.URL(ctx, "path/to/example.txt", drivemap.AnyonePermission(drivemap.RoleReader, false))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Link: %s\n", link)

	// Download it again without credentials
	step()
	data, err = download.GetBytes(ctx, link)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Downloaded %d bytes\n", len(data))

	// Delete it
	step()
	if err := store.Delete(ctx, "path/to/example.txt"); err != nil {
		log.Fatal(err)
	}
}
