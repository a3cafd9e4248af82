// Command addressctl runs address normalization in-process from a config file.
//
//	addressctl -config config.yaml format "1 main street springfield"
//	addressctl -config config.yaml suggest -count 5 "main st"
//	addressctl -config config.yaml geo -lat 55.75 -lon 37.61
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/cecil-the-coder/address-provider-kit/internal/app"
	"github.com/cecil-the-coder/address-provider-kit/pkg/config"
	"github.com/cecil-the-coder/address-provider-kit/pkg/formatter"
	"github.com/cecil-the-coder/address-provider-kit/pkg/logging"
	"github.com/cecil-the-coder/address-provider-kit/pkg/registry"
	"github.com/cecil-the-coder/address-provider-kit/pkg/types"
)

const mainUsageMsg = "[options] format|details|extended|suggest|suggest-formatted|geo|providers [args]"

const (
	exitOK      = 0
	exitNoMatch = 1
	exitUsage   = 2
	exitError   = 3
)

var (
	green  = color.New(color.FgHiGreen)
	yellow = color.New(color.FgHiYellow)
	red    = color.New(color.FgHiRed)
	blue   = color.New(color.FgHiBlue).SprintFunc()
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, color.Error))
}

func commandUsage(w io.Writer, fs *flag.FlagSet, errBuf *bytes.Buffer) {
	green.Fprintf(w, "Usage: %s %s\n\n", path.Base(os.Args[0]), mainUsageMsg)
	fs.SetOutput(w)
	fs.PrintDefaults()
	if errBuf != nil && errBuf.Len() > 0 {
		fmt.Fprintln(w, errBuf.String())
	}
	green.Fprintf(w, "\nSubcommands:\n\n")
	green.Fprintf(w, "\t%-18s - %s\n", "format TEXT", "Print the formatted best match, or TEXT itself")
	green.Fprintf(w, "\t%-18s - %s\n", "details TEXT", "Print the best match as JSON")
	green.Fprintf(w, "\t%-18s - %s\n", "extended JSON", "Enrich a selected suggestion given as JSON")
	green.Fprintf(w, "\t%-18s - %s\n", "suggest TEXT", "List suggestions for TEXT")
	green.Fprintf(w, "\t%-18s - %s\n", "suggest-formatted", "List suggestions for TEXT as display strings")
	green.Fprintf(w, "\t%-18s - %s\n", "geo", "List suggestions near -lat/-lon")
	green.Fprintf(w, "\t%-18s - %s\n", "providers", "List configured providers in consultation order")
}

// run executes one command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	mainFlagSet := flag.NewFlagSet("addressctl", flag.ContinueOnError)
	errBuf := new(bytes.Buffer)
	mainFlagSet.SetOutput(errBuf)

	configPath := mainFlagSet.String("config", "config.yaml", "Path to config file")
	noColor := mainFlagSet.Bool("no-color", false, "Disable colored output")
	verbose := mainFlagSet.Bool("v", false, "Log dispatcher activity to stderr")
	timeout := mainFlagSet.Duration("timeout", 30*time.Second, "Overall time limit")

	if err := mainFlagSet.Parse(args); err != nil {
		commandUsage(stderr, mainFlagSet, errBuf)
		return exitUsage
	}
	if *noColor {
		color.NoColor = true
	}
	rest := mainFlagSet.Args()
	if len(rest) == 0 {
		commandUsage(stderr, mainFlagSet, errBuf)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		red.Fprintf(stderr, "Failed to load config from %s: %v\n", *configPath, err)
		return exitError
	}

	logger := logging.Discard()
	if *verbose {
		logger = app.NewLogger(cfg, stderr)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		red.Fprintf(stderr, "Failed to initialize providers: %v\n", err)
		return exitError
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd := &command{app: a, stdout: stdout, stderr: stderr}
	switch rest[0] {
	case "format":
		return cmd.format(ctx, rest[1:])
	case "details":
		return cmd.details(ctx, rest[1:])
	case "extended":
		return cmd.extended(ctx, rest[1:])
	case "suggest":
		return cmd.suggest(ctx, rest[1:], false)
	case "suggest-formatted":
		return cmd.suggest(ctx, rest[1:], true)
	case "geo":
		return cmd.geo(ctx, rest[1:])
	case "providers":
		return cmd.providers()
	}

	red.Fprintf(stderr, "Unknown subcommand %q\n", rest[0])
	commandUsage(stderr, mainFlagSet, nil)
	return exitUsage
}

type command struct {
	app    *app.App
	stdout io.Writer
	stderr io.Writer
}

// limit applies the configured suggestion default and maximum
func (c *command) limit(count int) int {
	return c.app.Config.Suggestions.Normalize(count)
}

func (c *command) format(ctx context.Context, args []string) int {
	fmt.Fprintln(c.stdout, c.app.Service.FormatAddress(ctx, strings.Join(args, " ")))
	return exitOK
}

func (c *command) details(ctx context.Context, args []string) int {
	return c.printAddress(c.app.Service.LookupDetails(ctx, strings.Join(args, " ")))
}

func (c *command) extended(ctx context.Context, args []string) int {
	var selected *types.AddressData
	if err := json.Unmarshal([]byte(strings.Join(args, " ")), &selected); err != nil {
		red.Fprintf(c.stderr, "Invalid address JSON: %v\n", err)
		return exitUsage
	}
	return c.printAddress(c.app.Service.LookupExtendedDetails(ctx, selected))
}

func (c *command) suggest(ctx context.Context, args []string, formatted bool) int {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	count := fs.Int("count", 0, "Number of suggestions (0 uses the configured default)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	raw := strings.Join(fs.Args(), " ")

	if formatted {
		lines := c.app.Service.FormatSuggestions(ctx, raw, c.limit(*count))
		for _, line := range lines {
			fmt.Fprintln(c.stdout, line)
		}
		return c.noMatchIfEmpty(len(lines))
	}
	return c.printList(c.app.Service.SuggestByText(ctx, raw, c.limit(*count)))
}

func (c *command) geo(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("geo", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	lat := fs.Float64("lat", 0, "Latitude in degrees")
	lon := fs.Float64("lon", 0, "Longitude in degrees")
	count := fs.Int("count", 0, "Number of suggestions (0 uses the configured default)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		red.Fprintf(c.stderr, "Coordinates out of range: %f, %f\n", *lat, *lon)
		return exitUsage
	}
	return c.printList(c.app.Service.SuggestByCoordinates(ctx, *lat, *lon, c.limit(*count)))
}

func (c *command) providers() int {
	regs := registry.Ordered(c.app.Registry.Registrations())
	for _, reg := range regs {
		fmt.Fprintf(c.stdout, "%4d  %-20s %-8s %v\n",
			reg.Priority, reg.Provider.Name(), reg.Provider.Type(), types.Capabilities(reg.Provider))
	}
	return c.noMatchIfEmpty(len(regs))
}

func (c *command) printAddress(a *types.AddressData) int {
	if a == nil {
		return c.noMatchIfEmpty(0)
	}
	out, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		red.Fprintf(c.stderr, "Failed to encode result: %v\n", err)
		return exitError
	}
	fmt.Fprintln(c.stdout, string(out))
	return exitOK
}

func (c *command) printList(list []types.AddressData) int {
	for i := range list {
		line := formatter.Format(&list[i])
		if list[i].Source != "" {
			line += " " + blue("("+list[i].Source+")")
		}
		fmt.Fprintf(c.stdout, "%2d. %s\n", i+1, line)
	}
	return c.noMatchIfEmpty(len(list))
}

func (c *command) noMatchIfEmpty(n int) int {
	if n > 0 {
		return exitOK
	}
	yellow.Fprintln(c.stderr, "No match")
	return exitNoMatch
}
