package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/forest-guardian/distwise-lulc/internal/app"
	"github.com/forest-guardian/distwise-lulc/internal/batch"
	"github.com/forest-guardian/distwise-lulc/internal/pipeline"
	"github.com/forest-guardian/distwise-lulc/internal/progress"
)

// Service is what the menu drives; *app.App implements it.
type Service interface {
	States() ([]string, error)
	Districts(state string) ([]string, error)
	Stats(ctx context.Context, state, district, year string, sink pipeline.ProgressSink) (*app.Report, error)
	Batch(ctx context.Context, state, year string, cfg batch.Config) ([]batch.Result, error)
}

type menuOption struct {
	title   string
	handler func(ctx context.Context) error
}

type Menu struct {
	console
	svc   Service
	years []string
}

func NewMenu(svc Service, years []string, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		console: console{in: bufio.NewReader(in), out: out},
		svc:     svc,
		years:   years,
	}
}

var errExit = errors.New("exit")

// Show displays the main menu and handles user input until the user exits
// or the input ends.
func (m *Menu) Show(ctx context.Context) {
	menuOptions := []menuOption{
		{"Generate LULC stats for a district", m.AnalyzeDistrict},
		{"Generate LULC stats for every district of a state", m.AnalyzeState},
		{"View the list of available states", m.ListStates},
		{"View the list of districts of a state", m.ListDistricts},
		{"Exit the application", func(context.Context) error { fmt.Fprintln(m.out, "Exiting..."); return errExit }},
	}

	for {
		fmt.Fprintln(m.out, ColorBlue+"==================="+ColorReset)
		for i, opt := range menuOptions {
			fmt.Fprintf(m.out, "%s%d. %s%s\n", ColorBlue, i+1, opt.title, ColorReset)
		}

		choice, err := m.ReadInt("Please enter your choice: ", 1, len(menuOptions))
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			m.PrintError(err.Error())
			continue
		}

		err = menuOptions[choice-1].handler(ctx)
		switch {
		case errors.Is(err, errExit), errors.Is(err, io.EOF):
			return
		case err != nil:
			m.PrintError(err.Error())
		}
	}
}

func (m *Menu) readState() (string, error) {
	states, err := m.svc.States()
	if err != nil {
		return "", err
	}
	return m.Choose("Available states", states)
}

func (m *Menu) readYear() (string, error) {
	return m.Choose("Available LULC years", m.years)
}

func (m *Menu) AnalyzeDistrict(ctx context.Context) error {
	state, err := m.readState()
	if err != nil {
		return err
	}
	districts, err := m.svc.Districts(state)
	if err != nil {
		return err
	}
	district, err := m.Choose("Districts of "+state, districts)
	if err != nil {
		return err
	}
	year, err := m.readYear()
	if err != nil {
		return err
	}

	m.PrintInfo(fmt.Sprintf("\nRunning LULC stats generation for %s, %s (%s)...\n", district, state, year))
	report, err := m.svc.Stats(ctx, state, district, year, progress.NewPrinter(m.out))
	if err != nil {
		return err
	}

	if report.Table.Empty() {
		m.PrintWarning("The district does not overlap the land cover raster.")
	}
	fmt.Fprintf(m.out, "\n%-22s %8s  %s\n", "Land Cover Class", "%", "Color")
	for _, row := range report.Table.Rows {
		fmt.Fprintf(m.out, "%-22s %7.2f%%  %s\n", row.DisplayLabel(), row.Fraction, row.Color)
	}
	if report.Paths.Chart != "" {
		m.PrintSuccess(fmt.Sprintf("Done! Chart saved to %s", report.Paths.Chart))
	} else {
		m.PrintSuccess("Done!")
	}
	return nil
}

func (m *Menu) AnalyzeState(ctx context.Context) error {
	state, err := m.readState()
	if err != nil {
		return err
	}
	year, err := m.readYear()
	if err != nil {
		return err
	}

	results, err := m.svc.Batch(ctx, state, year, batch.Config{Progress: m.out})
	if err != nil {
		return err
	}
	failed := batch.Failed(results)
	for _, r := range failed {
		m.PrintWarning(fmt.Sprintf("%s: %v", r.District, r.Err))
	}
	m.PrintSuccess(fmt.Sprintf("%d of %d districts done", len(results)-len(failed), len(results)))
	return nil
}

func (m *Menu) ListStates(context.Context) error {
	states, err := m.svc.States()
	if err != nil {
		return err
	}
	m.PrintSuccess("Available states:\n" + strings.Join(states, "\n"))
	return nil
}

func (m *Menu) ListDistricts(context.Context) error {
	state, err := m.readState()
	if err != nil {
		return err
	}
	districts, err := m.svc.Districts(state)
	if err != nil {
		return err
	}
	m.PrintSuccess(fmt.Sprintf("Districts of %s:\n%s", state, strings.Join(districts, "\n")))
	return nil
}
