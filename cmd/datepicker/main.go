// Command datepicker serves the calendar-selection HTTP API and Telegram bot.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/m3rciful/datepicker/core/buildinfo"
	"github.com/m3rciful/datepicker/core/calendar"
	corecmd "github.com/m3rciful/datepicker/core/cmd"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/keyboard"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "datepicker",
		Usage:   "calendar date and range selection for chat bots",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   "config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and, when a bot token is set, the Telegram bot",
				Action: func(ctx context.Context, c *cli.Command) error {
					return corecmd.Run(ctx, corecmd.Options{ConfigPath: c.String("config")})
				},
			},
			{
				Name:      "grid",
				Usage:     "print a month calendar",
				ArgsUsage: "[year] [month]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text or inline"},
					&cli.StringFlag{Name: "mode", Value: string(selection.ModeSingle), Usage: "single or range"},
					&cli.StringFlag{Name: "user", Usage: "user id encoded into day buttons"},
				},
				Action: runGrid,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(_ context.Context, c *cli.Command) error {
					_, err := fmt.Fprintln(out(c), buildinfo.String())
					return err
				},
			},
		},
	}
}

func out(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func runGrid(_ context.Context, c *cli.Command) error {
	today := calendar.Today(time.Now)
	year, month := today.Year, int(today.Month)
	var err error
	if arg := c.Args().Get(0); arg != "" {
		if year, err = strconv.Atoi(arg); err != nil {
			return calendar.Errorf(calendar.KindInvalidDate, "year must be a number, got %q", arg)
		}
	}
	if arg := c.Args().Get(1); arg != "" {
		if month, err = strconv.Atoi(arg); err != nil {
			return calendar.Errorf(calendar.KindInvalidMonth, "month must be a number, got %q", arg)
		}
	}
	mode, err := selection.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	w := out(c)
	switch c.String("format") {
	case "inline":
		rows, err := keyboard.Build(year, month, mode, c.String("user"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, keyboard.Inline(rows))
		return err
	case "text":
		grid, err := calendar.Generate(year, month)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, renderGrid(year, month, grid))
		return err
	}
	return fmt.Errorf("unknown format %q; allowed: text, inline", c.String("format"))
}

func renderGrid(year, month int, grid calendar.Grid) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", keyboard.Title(year, month))
	for i, name := range calendar.WeekdayNames {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%2s", name)
	}
	b.WriteByte('\n')
	for _, week := range grid {
		for i, day := range week {
			if i > 0 {
				b.WriteByte(' ')
			}
			if day == calendar.Empty {
				b.WriteString("  ")
				continue
			}
			fmt.Fprintf(&b, "%2d", day)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
