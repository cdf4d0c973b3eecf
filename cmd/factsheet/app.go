package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"factsheet/internal/config"
	"factsheet/internal/render"
	"factsheet/internal/service"
	"factsheet/internal/sheets"
)

// app is the wiring shared by the subcommands
type app struct {
	cfg      *config.Config
	cfgPath  string
	logger   *log.Logger
	registry *sheets.Registry
	eventBus *service.EventBus
	renderer *render.Renderer
}

func newApp(flags *rootFlags, stderr io.Writer) (*app, error) {
	var (
		cfg     *config.Config
		cfgPath string
		err     error
	)
	if flags.configPath != "" {
		cfg, cfgPath, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, cfgPath, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(stderr, log.Options{
		Prefix:          "factsheet",
		Level:           cfg.LogLevel(),
		ReportTimestamp: true,
	})
	if cfgPath != "" {
		logger.Debug("Loaded config", "path", cfgPath)
	}

	sheetList := sheetsFromConfig(cfg, cfgPath)
	if flags.document != "" {
		sheetList = []sheets.Sheet{{Glob: "**", Path: flags.document}}
	}
	registry, err := sheets.New(sheetList, sheets.WithLogger(logger.WithPrefix("sheets")))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		cfgPath:  cfgPath,
		logger:   logger,
		registry: registry,
		eventBus: service.NewEventBus(),
		renderer: render.New(cfg.RepoURLTemplate),
	}

	return a, nil
}

// service builds the facts service over the app's registry and event bus
func (a *app) service(opts ...service.Option) *service.FactsService {
	opts = append([]service.Option{service.WithLogger(a.logger.WithPrefix("service"))}, opts...)
	return service.NewFactsService(a.registry, a.required(), a.eventBus, opts...)
}

func (a *app) required() service.Required {
	return service.Required{
		Component: a.cfg.Required.Component,
		Deploy:    a.cfg.Required.Deploy,
		Tenant:    a.cfg.Required.Tenant,
	}
}

// sheetsFromConfig resolves relative document paths against the directory
// of the config file
func sheetsFromConfig(cfg *config.Config, cfgPath string) []sheets.Sheet {
	base := ""
	if cfgPath != "" {
		base = filepath.Dir(cfgPath)
	}

	out := make([]sheets.Sheet, 0, len(cfg.Sheets))
	for _, s := range cfg.Sheets {
		path := s.Path
		if base != "" && !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		out = append(out, sheets.Sheet{Glob: s.Glob, Path: path})
	}
	return out
}

// show writes Markdown either raw or rendered for the terminal
func show(w io.Writer, md string, raw bool, width int) error {
	if raw {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := render.Terminal(md, width)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
