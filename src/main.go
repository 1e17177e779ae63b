package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron"

	"AirTrafficInsight/src/config"
	"AirTrafficInsight/src/datasource/email"
	"AirTrafficInsight/src/datasource/file"
	"AirTrafficInsight/src/pipeline"
	"AirTrafficInsight/src/storage"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	pipe, err := pipeline.New(cfg, dcfg, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline: " + err.Error())
		log.Fatal(err)
	}

	runAll(pipe, cfg, logger)

	if cfg.Watch {
		go watchDatasets(pipe, cfg, logger)
	}

	c := cron.New()

	if cfg.Email.Server != "" {
		emailClient := email.NewEmailClient(
			cfg.Email.Server,
			cfg.Email.Username,
			cfg.Email.Password)

		handler := email.NewDatasetAttachmentHandler(cfg.Email.TargetSubject, cfg.DataDir)

		interval := time.Duration(cfg.Email.CheckInterval).String()
		cronSpec := fmt.Sprintf("@every %s", interval)

		err = c.AddFunc(cronSpec, func() {
			checkMailbox(pipe, cfg, logger, emailClient, handler)
		})
		if err != nil {
			logger.Error("Failed to schedule mailbox check: " + err.Error())
			return
		}
		logger.Info(fmt.Sprintf("Mailbox monitoring started (interval: %v)", interval))
	}

	// rotate the log once a day if it has grown past the limit
	if cfg.LogMaxSize != "" {
		_ = c.AddFunc("@daily", func() {
			logger.CheckRotate(cfg)
		})
	}

	c.Start()
	defer c.Stop()

	go startWebUI(logger)

	waitForShutdown(logger)
}

// runAll runs both datasets through the pipeline. A failed run is logged
// and the other dataset still runs; a missing dataset file is fatal.
func runAll(pipe *pipeline.Pipeline, cfg *config.Config, logger *storage.Logger) {
	t1 := time.Now()

	if cfg.Datasets.International != "" {
		requireDataset(cfg.Datasets.International, logger)
		if _, err := pipe.RunInternational(cfg.Datasets.International); err != nil {
			logger.Error("International run failed: " + err.Error())
		}
	}

	if cfg.Datasets.Domestic != "" {
		requireDataset(cfg.Datasets.Domestic, logger)
		if _, err := pipe.RunDomestic(cfg.Datasets.Domestic); err != nil {
			logger.Error("Domestic run failed: " + err.Error())
		}
	}

	logger.Info(fmt.Sprintf("Pipeline run finished in %v", time.Since(t1)))
}

// requireDataset aborts the program when a configured dataset file does
// not exist. There is nothing useful to do without the source data.
func requireDataset(path string, logger *storage.Logger) {
	if _, err := os.Stat(path); err != nil {
		logger.Fatal("Dataset file missing: " + path)
		logger.Close()
		log.Fatalf("dataset file missing: %s", path)
	}
}

// watchDatasets re-runs the pipeline whenever a dataset file under the
// data directory is rewritten.
func watchDatasets(pipe *pipeline.Pipeline, cfg *config.Config, logger *storage.Logger) {
	monitor, err := file.NewDatasetMonitor(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to start dataset monitor: " + err.Error())
		return
	}
	defer monitor.Close()

	err = monitor.Watch(func(path string) {
		logger.Info("Dataset updated: " + path)
		switch filepath.Base(path) {
		case filepath.Base(cfg.Datasets.International):
			if _, err := pipe.RunInternational(cfg.Datasets.International); err != nil {
				logger.Error("International re-run failed: " + err.Error())
			}
		case filepath.Base(cfg.Datasets.Domestic):
			if _, err := pipe.RunDomestic(cfg.Datasets.Domestic); err != nil {
				logger.Error("Domestic re-run failed: " + err.Error())
			}
		}
	})
	if err != nil {
		logger.Error("Dataset monitoring error: " + err.Error())
	}
}

// checkMailbox fetches the latest dataset mail, saves its attachments into
// the data directory, re-runs the pipeline, and mails the fresh report.
func checkMailbox(pipe *pipeline.Pipeline, cfg *config.Config, logger *storage.Logger,
	emailClient *email.EmailClient, handler *email.DatasetAttachmentHandler) {

	logger.Info("Checking mailbox for dataset updates...")
	t1 := time.Now()

	newEmail, err := email.CheckAndProcessEmails(emailClient, cfg.Email.TargetSubject, logger)
	if err != nil {
		logger.Error("Mailbox check failed: " + err.Error())
		return
	}
	if newEmail == nil {
		return
	}

	saved, err := handler.Handle(newEmail)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to save attachments (UID:%d): %v", newEmail.UID, err))
		return
	}
	if len(saved) == 0 {
		return
	}

	runAll(pipe, cfg, logger)

	if cfg.SendEmail.Server != "" {
		reportPath := filepath.Join(cfg.OutputDir, "international_report.xlsx")
		if err := email.SendReport(cfg, reportPath); err != nil {
			logger.Error("Failed to send report: " + err.Error())
		} else {
			logger.Info("Report sent to " + cfg.SendEmail.Recipient)
		}
	}

	logger.Info(fmt.Sprintf("Mailbox-triggered run finished in %v", time.Since(t1)))
}

// startWebUI serves the live log stream at /logs.
func startWebUI(logger *storage.Logger) {
	http.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Transfer-Encoding", "chunked")

		logChan := logger.Subscribe()

		for {
			select {
			case msg := <-logChan:
				if _, err := fmt.Fprintln(w, msg); err != nil {
					return
				}
				if f, ok := w.(http.Flusher); ok {
					f.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	})

	http.ListenAndServe(":8080", nil)
}

func waitForShutdown(logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal: " + sig.String() + ", shutting down...")
	logger.Close()
	os.Exit(0)
}
