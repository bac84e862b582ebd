/*
DESCRIPTION
  sentry watches an MJPEG stream for objects left in, or removed from, the
  scene and writes outlined frames of each change to the configured outputs.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sentry is a command for running scene change detection.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/sentry/config"
	"github.com/ausocean/sentry/sentry"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = true
)

const pkg = "sentry: "

func main() {
	var (
		configPath  = flag.String("config", "", "path of key=value config file, watched for changes")
		inputPath   = flag.String("input", "", "input path, overrides InputPath")
		outputPath  = flag.String("output", "", "output path, overrides OutputPath")
		logPath     = flag.String("log", "/var/log/sentry/sentry.log", "log file path")
		verbosity   = flag.String("v", "Info", "log verbosity: Debug, Info, Warning, Error or Fatal")
		showVersion = flag.Bool("version", false, "show version")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Create lumberjack logger to handle logging to file.
	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()

	log := logging.New(logging.Info, io.MultiWriter(os.Stderr, fileLog), logSuppress)
	log.Info("starting sentry", "version", version)

	vars := map[string]string{config.KeyLogging: *verbosity}
	if *configPath != "" {
		fileVars, err := readVars(*configPath)
		if err != nil {
			log.Fatal(pkg+"could not read config file", "error", err.Error())
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	if *inputPath != "" {
		vars[config.KeyInputPath] = *inputPath
	}
	if *outputPath != "" {
		vars[config.KeyOutputPath] = *outputPath
	}

	cfg := config.Config{Logger: log}
	cfg.Update(vars)

	log.Debug("initialising sentry")
	s, err := sentry.New(cfg)
	if err != nil {
		log.Fatal(pkg+"could not initialise sentry", "error", err.Error())
	}

	err = s.Start()
	if err != nil {
		log.Fatal(pkg+"could not start sentry", "error", err.Error())
	}
	log.Info("sentry started")

	ok, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warning(pkg+"could not notify systemd", "error", err.Error())
	} else if ok {
		log.Debug("notified systemd of readiness")
	}

	if *configPath != "" {
		w, err := watchVars(*configPath, vars, s, log)
		if err != nil {
			log.Warning(pkg+"not watching config file", "error", err.Error())
		} else {
			defer w.Close()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-s.Done():
		log.Info("input ended")
	case v := <-sig:
		log.Info("received signal", "signal", v.String())
	}

	daemon.SdNotify(false, daemon.SdNotifyStopping)
	s.Stop()
	log.Info("sentry stopped")
}
