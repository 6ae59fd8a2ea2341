package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"intake-backend/internal/bootstrap"
	"intake-backend/internal/imagecodec"
	"intake-backend/internal/intake"
	"intake-backend/internal/llm"
	"intake-backend/internal/shared/config"
	localstore "intake-backend/internal/shared/storage/object/local"
)

func main() {
	cfg := config.Load()

	imagePath := flag.String("image", "", "Path to the scanned intake form")
	outPath := flag.String("out", "", "Path to write the validated JSON (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "Extraction provider (openai|gemini)")
	model := flag.String("model", cfg.LLMModel, "Provider model")
	maxDim := flag.Int("max-dim", cfg.ImageMaxDimension, "Downscale images larger than this many pixels (0 keeps the original)")
	timeout := flag.Duration("timeout", cfg.ExtractionTimeout, "Extraction timeout")
	flag.Parse()

	if strings.TrimSpace(*imagePath) == "" {
		exitErr("image path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.LLMModel = *model
	cfg.Env = "production"
	extractor, err := bootstrap.NewExtractor(ctx, cfg)
	if err != nil {
		exitErr(err.Error())
	}

	mimeType, err := sniffMime(*imagePath)
	if err != nil {
		exitErr(err.Error())
	}

	enc := &imagecodec.Encoder{
		Store:        localstore.New(filepath.Dir(*imagePath)),
		MaxDimension: *maxDim,
	}
	encoded, err := enc.Encode(ctx, filepath.Base(*imagePath), mimeType)
	if err != nil {
		exitErr(fmt.Sprintf("encode image: %v", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	raw, err := extractor.Extract(callCtx, llm.NewExtractionRequest(encoded.Base64, encoded.MimeType))
	if err != nil {
		exitErr(fmt.Sprintf("extract: %v", err))
	}

	if _, err := intake.ParseResult(raw); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "raw output (%d bytes):\n%s\n", len(raw), raw)
		exitErr(fmt.Sprintf("invalid result: %v", err))
	}

	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func sniffMime(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	var head [512]byte
	n, _ := f.Read(head[:])
	mimeType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}
	return mimeType, nil
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
