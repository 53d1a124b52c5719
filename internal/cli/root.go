// Package cli implements the textres command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/reoring/textres"
	"github.com/reoring/textres/manifest"
)

// app carries the state shared by subcommands once configuration is loaded.
type app struct {
	fs      afero.Fs
	v       *viper.Viper
	cfgFile string
	roots   map[string]string
	cfg     Config
	logger  *zap.Logger
}

// NewRootCommand builds the command tree. fsys backs manifests, config files
// and file resources; nil means the OS filesystem.
func NewRootCommand(fsys afero.Fs) *cobra.Command {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	a := &app{fs: fsys, v: newViper()}
	a.v.SetFs(fsys)

	root := &cobra.Command{
		Use:           "textres",
		Short:         "Inspect and read lazily-resolved text resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	d := DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./.textres.yaml)")
	pf.StringP("manifest", "m", d.Manifest, "resource manifest (YAML or TOML)")
	pf.StringToStringVar(&a.roots, "resolver", nil, "classpath resolver as identity=directory (repeatable)")
	pf.String("base-dir", d.BaseDir, "directory relative file paths are resolved against")
	pf.String("charset", d.Charset, "default charset")
	pf.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	pf.Duration("http-timeout", d.HTTPTimeout, "timeout for URI resources")
	for key, flag := range map[string]string{
		"manifest":     "manifest",
		"base_dir":     "base-dir",
		"charset":      "charset",
		"log_level":    "log-level",
		"http_timeout": "http-timeout",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(newListCommand(a), newCatCommand(a), newEncodeCommand(a), newDecodeCommand(a))
	return root
}

// Execute runs the CLI with the OS filesystem.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand(nil)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) init() error {
	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	l, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = l
	return nil
}

func (a *app) factory() (*textres.Factory, error) {
	cs, err := textres.LookupCharset(a.cfg.Charset)
	if err != nil {
		return nil, err
	}
	var svc textres.Services
	textres.Provide[afero.Fs](&svc, a.fs)
	textres.Provide(&svc, &http.Client{Timeout: a.cfg.HTTPTimeout})
	textres.Provide(&svc, a.logger)
	textres.Provide(&svc, a.resolvers())
	return textres.NewFactoryFrom(&svc, textres.WithBaseDir(a.cfg.BaseDir), textres.WithDefaultCharset(cs))
}

// resolvers exposes each --resolver directory as a classpath root.
func (a *app) resolvers() []textres.Resolver {
	out := make([]textres.Resolver, 0, len(a.roots))
	for id, dir := range a.roots {
		out = append(out, textres.NewFSResolver(id, afero.NewIOFS(afero.NewBasePathFs(a.fs, dir)), ""))
	}
	return out
}

func (a *app) resources() (*manifest.Set, error) {
	m, err := manifest.Load(a.fs, a.cfg.Manifest)
	if err != nil {
		return nil, err
	}
	f, err := a.factory()
	if err != nil {
		return nil, err
	}
	return m.Build(f)
}

func (a *app) lookup(set *manifest.Set, names []string) ([]*textres.TextResource, error) {
	out := make([]*textres.TextResource, 0, len(names))
	for _, n := range names {
		r, ok := set.Get(n)
		if !ok {
			return nil, fmt.Errorf("no resource named %q in %s", n, a.cfg.Manifest)
		}
		out = append(out, r)
	}
	return out, nil
}
