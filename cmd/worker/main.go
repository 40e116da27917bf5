package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/config"
	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/bootstrap"
	"github.com/vbdlis-normalizer/internal/history"
	"github.com/vbdlis-normalizer/internal/parser"
)

func main() {
	inPath := flag.String("in", "-", "file CSV đầu vào, '-' là stdin")
	outPath := flag.String("out", "-", "file NDJSON đầu ra, '-' là stdout")
	gzipOut := flag.Bool("gzip", false, "nén gzip đầu ra")
	configFile := flag.String("config", "config/normalizer.yaml", "file cấu hình normalizer")
	recordHistory := flag.Bool("history", false, "ghi lịch sử tra cứu vào SQLite")
	flag.Parse()

	logger := bootstrap.InitLogger()
	defer logger.Sync()

	if err := config.Load(*configFile); err != nil {
		logger.Warn("Không đọc được cấu hình normalizer, dùng mặc định",
			zap.String("file", *configFile), zap.Error(err))
	}

	rules, err := config.C.BuildRules()
	if err != nil {
		logger.Fatal("Failed to load keyword rules", zap.Error(err))
	}

	var recorder services.HistoryRecorder
	if *recordHistory {
		store, err := history.Open(config.C.History.DBPath, nil, logger)
		if err != nil {
			logger.Fatal("Failed to open search history", zap.Error(err))
		}
		defer store.Close()
		recorder = services.NewHistoryService(store, logger)
	}

	recordService := services.NewRecordService(parser.NewRecordParser(rules, nil, logger), nil, recorder, nil, logger)

	in, err := openInput(*inPath)
	if err != nil {
		logger.Fatal("Failed to open input", zap.Error(err))
	}
	defer in.Close()

	out, err := openOutput(*outPath)
	if err != nil {
		logger.Fatal("Failed to open output", zap.Error(err))
	}
	defer out.Close()

	buffered := bufio.NewWriter(out)
	var w io.Writer = buffered
	var gz *gzip.Writer
	if *gzipOut {
		gz = gzip.NewWriter(buffered)
		w = gz
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rows, err := parser.NewRowReader(bufio.NewReader(in))
	if err != nil {
		logger.Fatal("Failed to read CSV header", zap.Error(err))
	}

	logger.Info("Starting VBDLIS Normalizer Worker",
		zap.String("in", *inPath),
		zap.String("out", *outPath),
		zap.String("rules_version", rules.Version))

	results := make(chan *models.RecordResult, 100)
	var readErr error
	go func() {
		defer close(results)
		readErr = normalizeRows(ctx, rows, recordService, requests.NormalizeOptions{RecordHistory: *recordHistory}, results)
	}()

	written, writeErr := services.WriteNDJSON(w, results)

	if gz != nil {
		if err := gz.Close(); err != nil && writeErr == nil {
			writeErr = err
		}
	}
	if err := buffered.Flush(); err != nil && writeErr == nil {
		writeErr = err
	}

	if writeErr != nil {
		logger.Fatal("Failed to write NDJSON", zap.Int("written", written), zap.Error(writeErr))
	}
	if readErr != nil {
		logger.Fatal("Failed to process CSV", zap.Int("written", written), zap.Error(readErr))
	}

	logger.Info("Worker completed", zap.Int("records", written))
}

// normalizeRows đọc từng dòng CSV, chuẩn hóa và đẩy kết quả vào channel
func normalizeRows(ctx context.Context, rows *parser.RowReader, rs *services.RecordService, opts requests.NormalizeOptions, out chan<- *models.RecordResult) error {
	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		result, _, err := rs.NormalizeRecord(ctx, row, opts)
		if err != nil {
			return err
		}

		select {
		case out <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
