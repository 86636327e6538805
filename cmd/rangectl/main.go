// Command rangectl inspects a range table from the command line.
//
//	rangectl -f HE860.xlsx keys
//	rangectl -f HE860.xlsx show 2500
//	rangectl -f ranges.csv --format csv stats
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/AwsThamer/ranger/internal/core"
	"github.com/AwsThamer/ranger/internal/logging"
)

type globalOptions struct {
	File       string `short:"f" long:"file" description:"range table file" default:"HE860.xlsx"`
	Format     string `long:"format" description:"table format" choice:"auto" choice:"xlsx" choice:"csv" default:"auto"`
	Sheet      string `long:"sheet" description:"workbook sheet, first sheet when empty"`
	SkipHeader bool   `long:"skip-header" description:"drop the first non-empty row"`
	Verbose    bool   `short:"v" long:"verbose" description:"debug logging"`
}

func (g *globalOptions) service() (*core.Service, error) {
	format, err := core.ParseFormat(g.Format)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if g.Verbose {
		level = "debug"
	}
	logger, _ := logging.New(logging.Options{Level: level, Format: "text", Output: os.Stderr})

	loader := core.NewLoader(core.LoaderOptions{
		Format:     format,
		Sheet:      g.Sheet,
		SkipHeader: g.SkipHeader,
	}, nil).WithLogger(logger)

	svc := core.NewService(loader, core.FileOpener(g.File), nil, nil)
	if res := svc.Preload(); !res.OK() {
		msg := core.MapError(res.Err)
		return nil, fmt.Errorf("%s (%s): %w", msg.Message, msg.Code, res.Err)
	}
	return svc, nil
}

type keysCommand struct {
	global *globalOptions
	out    io.Writer
}

func (c *keysCommand) Execute([]string) error {
	svc, err := c.global.service()
	if err != nil {
		return err
	}
	for _, k := range svc.Keys() {
		fmt.Fprintln(c.out, k)
	}
	return nil
}

type showCommand struct {
	JSON bool `long:"json" description:"print the selection as JSON"`
	Args struct {
		Key string `positional-arg-name:"key" required:"yes"`
	} `positional-args:"yes"`

	global *globalOptions
	out    io.Writer
}

var errNoMatch = errors.New("range not found")

func (c *showCommand) Execute([]string) error {
	svc, err := c.global.service()
	if err != nil {
		return err
	}
	sel := svc.Project(c.Args.Key)

	if c.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sel); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "range\t%s\n", sel.Key)
		for _, f := range sel.Fields {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Label, f.Caption, f.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if !sel.Matched {
		return fmt.Errorf("%w: %q", errNoMatch, c.Args.Key)
	}
	return nil
}

type statsCommand struct {
	global *globalOptions
	out    io.Writer
}

func (c *statsCommand) Execute([]string) error {
	svc, err := c.global.service()
	if err != nil {
		return err
	}
	res := svc.LoadStatus()
	idx := core.NewIndex(svc.Table())

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", c.global.File)
	fmt.Fprintf(tw, "format\t%s\n", res.Format)
	if res.Sheet != "" {
		fmt.Fprintf(tw, "sheet\t%s\n", res.Sheet)
	}
	fmt.Fprintf(tw, "bytes\t%d\n", res.Bytes)
	fmt.Fprintf(tw, "rows\t%d\n", res.Rows)
	fmt.Fprintf(tw, "keys\t%d\n", len(idx.Keys()))
	fmt.Fprintf(tw, "duplicates\t%v\n", idx.Duplicates())
	fmt.Fprintf(tw, "load time\t%s\n", res.Duration)
	return tw.Flush()
}

func newParser(out io.Writer) (*flags.Parser, error) {
	global := &globalOptions{}
	parser := flags.NewParser(global, flags.HelpFlag|flags.PassDoubleDash)

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"keys", "List range keys", "Print every selectable range key in table order.", &keysCommand{global: global, out: out}},
		{"show", "Show one range", "Print the labelled fields of the first row matching key.", &showCommand{global: global, out: out}},
		{"stats", "Describe the table", "Print load statistics and duplicate keys.", &statsCommand{global: global, out: out}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return nil, err
		}
	}
	return parser, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	parser, err := newParser(stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return 0
		}
		fmt.Fprintln(stderr, "rangectl:", err)
		if errors.As(err, &ferr) {
			return 2
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
