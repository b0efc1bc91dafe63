package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/forest-guardian/distwise-lulc/internal/app"
	"github.com/forest-guardian/distwise-lulc/internal/commands"
	"github.com/forest-guardian/distwise-lulc/internal/logger"
	"github.com/forest-guardian/distwise-lulc/internal/model"
	"github.com/forest-guardian/distwise-lulc/internal/notification"
	"github.com/forest-guardian/distwise-lulc/internal/properties"
)

func printBanner() {
	figure1 := figure.NewFigure("Distwise", "isometric1", true)
	figure2 := figure.NewFigure("LULC", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func loadEnv() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	pc, file, line, ok := runtime.Caller(3)
	location := "Unknown location"
	if ok {
		location = fmt.Sprintf("%s:%d in %s", file, line, runtime.FuncForPC(pc).Name())
	}

	fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
	fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
	fmt.Printf("\033[31mPlease check the input and try again.\033[0m\n")
	fmt.Printf("\033[31mExiting...\033[0m\n")

	errMessage := fmt.Sprintf("Distwise LULC CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, debug.Stack())
	if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
		fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
	}
	os.Exit(2)
}

func main() {
	defer recoverPanic()

	loadEnv()
	godal.RegisterAll()

	cfg := properties.FromEnv()
	interactive := len(os.Args) == 1
	log := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   true,
		Component: "distwise-lulc",
	}, os.Stderr)

	if interactive {
		printBanner()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := func(ctx context.Context) (commands.Service, error) {
		return app.New(ctx, cfg, &log), nil
	}
	if err := commands.Execute(ctx, build); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
