package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"clinicfront/config"
	"clinicfront/services/clinicapi"
	"clinicfront/services/queue"
	"clinicfront/services/runtimeconfig"
	"clinicfront/utils"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

type globals struct {
	ConfigURL string        `name:"config-url" env:"RUNTIME_CONFIG_URL" help:"Runtime config document (defaults to the server's RUNTIME_CONFIG_URL)."`
	Token     string        `env:"CLINIC_TOKEN" help:"Staff access token sent as the bearer token."`
	Timeout   time.Duration `default:"15s" help:"Timeout for each API call."`
	Verbose   bool          `short:"v" help:"Log requests to stderr."`
}

type cli struct {
	globals

	Config configCmd `cmd:"" help:"Runtime config commands."`
	Queue  queueCmd  `cmd:"" help:"Queue commands."`
}

type configCmd struct {
	Check configCheckCmd `cmd:"" help:"Load and validate the runtime config document."`
}

type queueCmd struct {
	List   queueListCmd   `cmd:"" help:"Print the live queue."`
	Report queueReportCmd `cmd:"" help:"Export archived entries as CSV."`
}

type configCheckCmd struct{}

type queueListCmd struct{}

type queueReportCmd struct {
	Date string `default:"today" enum:"today,yesterday,this_week,this_month" help:"Date preset, ignored when --from/--to are set."`
	From string `help:"First day (2006-01-02)."`
	To   string `help:"Last day (2006-01-02)."`
	Out  string `type:"path" help:"Write the CSV here instead of stdout."`
}

// app is what every command runs against.
type app struct {
	loader *runtimeconfig.Loader
	api    *clinicapi.Client
	token  string
}

func newApp(g *globals) *app {
	logger := zap.NewNop()
	if g.Verbose {
		if l, err := utils.NewLogger(config.GetEnv(), "debug", "clinicctl"); err == nil {
			logger = l
		}
	}
	url := g.ConfigURL
	if url == "" {
		url = config.AppConfig.RuntimeConfigURL
	}
	loader := runtimeconfig.NewLoader(runtimeconfig.Options{
		URL:      url,
		MaxTries: 2,
		Logger:   logger,
	})
	return &app{
		loader: loader,
		api:    clinicapi.New(loader, clinicapi.WithTimeout(g.Timeout), clinicapi.WithLogger(logger)),
		token:  g.Token,
	}
}

func (a *app) ctx(parent context.Context) context.Context {
	return clinicapi.WithToken(parent, a.token)
}

func main() {
	config.LoadConfig()

	var root cli
	kctx := kong.Parse(&root,
		kong.Name("clinicctl"),
		kong.Description("Operator tool for the clinic frontend: check the runtime config and pull queue data."),
		kong.UsageOnError(),
	)
	kctx.BindTo(context.Background(), (*context.Context)(nil))
	kctx.Bind(newApp(&root.globals))
	kctx.FatalIfErrorf(kctx.Run())
}

func (cmd *configCheckCmd) Run(ctx context.Context, a *app) error {
	rt, err := a.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("clinicctl: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✓ backend_url %s\n  api base   %s\n  media base %s\n", rt.BackendURL, rt.APIBase(), rt.MediaBase())
	return nil
}

func (cmd *queueListCmd) Run(ctx context.Context, a *app) error {
	entries, err := a.api.ListQueue(a.ctx(ctx))
	if err != nil {
		return fmt.Errorf("clinicctl: list queue: %s", clinicapi.ErrorMessage(err))
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tSTATUS\tPRIORITY\tSERVICE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.QueueNumber, e.Name, e.Status, e.Priority, e.SelectedService)
	}
	return tw.Flush()
}

func (cmd *queueReportCmd) Run(ctx context.Context, a *app) error {
	filter, err := queue.ReportFilter{Preset: cmd.Date, From: cmd.From, To: cmd.To}.Normalize()
	if err != nil {
		return fmt.Errorf("clinicctl: %w", err)
	}
	svc := queue.NewService(a.api, nil, nil)
	rows, err := svc.Reports(a.ctx(ctx), filter)
	if err != nil {
		return fmt.Errorf("clinicctl: fetch report: %s", clinicapi.ErrorMessage(err))
	}

	var w io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out)
		if err != nil {
			return fmt.Errorf("clinicctl: create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		w = f
	}
	if err := queue.WriteCSV(w, rows, time.Local); err != nil {
		return fmt.Errorf("clinicctl: write csv: %w", err)
	}
	if cmd.Out != "" {
		fmt.Fprintf(os.Stderr, "✓ %d row(s) written to %s\n", len(rows), cmd.Out)
	}
	return nil
}
