// Package main provides deckctl, a small operator client for a running
// beacon-deck server.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/beacondesk/beacon-deck/pkg/client"
)

// chunkThreshold is the file size above which deckctl switches from a
// direct multipart upload to the chunked protocol
const chunkThreshold = 8 * 1024 * 1024

func main() {
	server := flag.String("server", "http://localhost:8080", "beacon-deck server URL")
	numSlides := flag.Int("slides", 0, "exact slide count (0 = let the model decide)")
	mode := flag.String("mode", "ai", "extraction mode: ai or extract")
	outDir := flag.String("out", ".", "output directory for the .pptx and .html files")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: deckctl [flags] <document.pdf>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := flag.Arg(0)
	if err := run(*server, path, *mode, *numSlides, *outDir); err != nil {
		log.Fatalf("deckctl: %v", err)
	}
}

func run(server, path, mode string, numSlides int, outDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	c := client.New(server)
	meta := client.UploadMeta{
		Filename:       filepath.Base(path),
		ExtractionMode: mode,
		NumSlides:      numSlides,
	}

	ctx := context.Background()

	var result *client.Result
	if info.Size() > chunkThreshold {
		fmt.Printf("Uploading %s (%d bytes) in chunks...\n", meta.Filename, info.Size())
		result, err = c.UploadLarge(ctx, f, info.Size(), meta, func(percent float64) {
			fmt.Printf("\r  %.0f%%", percent)
		})
		fmt.Println()
	} else {
		fmt.Printf("Uploading %s (%d bytes)...\n", meta.Filename, info.Size())
		result, err = c.Upload(ctx, f, meta)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Converted into %d slides\n", result.TotalSlides)

	base := strings.TrimSuffix(meta.Filename, filepath.Ext(meta.Filename))

	pptxBytes, err := base64.StdEncoding.DecodeString(result.PPTXBase64)
	if err != nil {
		return fmt.Errorf("decoding presentation: %w", err)
	}
	pptxPath := filepath.Join(outDir, base+".pptx")
	if err := os.WriteFile(pptxPath, pptxBytes, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", pptxPath)

	htmlPath := filepath.Join(outDir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(result.HTMLPreview), 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", htmlPath)

	return nil
}
