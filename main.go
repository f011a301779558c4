package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsf/termbox-go"
	flag "github.com/spf13/pflag"

	"github.com/yididiel7/fresh/config"
	"github.com/yididiel7/fresh/editor"
)

const version = "0.4.0"

const (
	exitOK          = 0
	exitArgError    = 1
	exitIOError     = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := flag.NewFlagSet("fresh", flag.ContinueOnError)
	showVersion := flags.Bool("version", false, "print version and exit")
	configPath := flags.String("config", "", "override config file path")
	readonly := flags.Bool("readonly", false, "open buffers read-only")
	line := flags.IntP("line", "l", 0, "open with cursor on line N (1-based)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: fresh [flags] [path...]\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitArgError
	}
	if *showVersion {
		fmt.Println("fresh " + version)
		return exitOK
	}
	if *line < 0 {
		fmt.Fprintln(os.Stderr, "--line must be positive")
		return exitArgError
	}

	dirs := config.DefaultDirs()
	userConfigPath := dirs.ConfigPath()
	if *configPath != "" {
		userConfigPath = *configPath
	}
	userLayer, err := config.Load(userConfigPath)
	if err != nil {
		// a broken config falls back to defaults, reported once
		fmt.Fprintf(os.Stderr, "fresh: %v (using defaults)\n", err)
		userLayer = &config.Config{}
	}
	projectLayer, err := config.Load(".fresh.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "fresh: %v (ignoring project config)\n", err)
		projectLayer = &config.Config{}
	}
	cfg := config.Resolve(userLayer, projectLayer)

	e, err := editor.NewEditor(cfg, dirs, flags.Args(), editor.Options{
		ReadOnly: *readonly,
		Line:     *line,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fresh:", err)
		return exitIOError
	}

	if err := termbox.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "fresh:", err)
		return exitIOError
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)

	e.Resize()
	go func() {
		for {
			e.Events <- termbox.PollEvent()
		}
	}()

	done := make(chan error, 1)
	go func() { done <- e.Loop() }()

	select {
	case err := <-done:
		if err != nil && err != editor.ErrQuit {
			fmt.Fprintln(os.Stderr, "fresh:", err)
			return exitIOError
		}
		return exitOK
	case <-interrupted:
		return exitInterrupted
	}
}
