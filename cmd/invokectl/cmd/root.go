package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vast-data/go-invoke/core"
	"github.com/vast-data/go-invoke/discovery"
	"github.com/vast-data/go-invoke/internal/logging"
	"github.com/vast-data/go-invoke/internal/tracing"
)

// EnvPrefix prefixes the environment variables read by invokectl.
const EnvPrefix = "INVOKECTL"

// Configuration keys.
const (
	keyMarker        = "marker"
	keyRecursive     = "recursive"
	keyAllowMultiple = "allow_multiple"
	keyExclude       = "exclude"
	keyIncludeTests  = "include_tests"
	keyOutput        = "output"
	keyModule        = "module"
	keyLogLevel      = "log.level"
	keyLogFormat     = "log.format"
	keyLogFile       = "log.file"
	keyTraceEnabled  = "tracing.enabled"
	keyTraceEndpoint = "tracing.endpoint"
	keyTraceInsecure = "tracing.insecure"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	logger  *zap.Logger
	flush   func()
	tracer  *tracing.Provider
}

// Execute runs the invokectl root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop(), flush: func() {}}

	root := &cobra.Command{
		Use:   "invokectl",
		Short: "Find, check and register methods marked for invocation",
		Long: `invokectl scans Go source code for methods marked with

	// +invoke:method
	// +invoke:method:returnType=<type>

and generates the code registering them, manifests and OpenAPI schemas.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.invokectl/config.yaml)")
	flags.String(keyMarker, core.MarkerName, "marker designating methods to invoke")
	flags.BoolP(keyRecursive, "r", false, "scan sub directories")
	flags.Bool("allow-multiple", false, "accept several marked methods per component")
	flags.StringSlice(keyExclude, nil, "directory names to skip")
	flags.Bool("include-tests", false, "scan _test.go files")
	flags.StringP(keyOutput, "o", "table", "output format: table, json or yaml")
	flags.String(keyModule, "", "module name recorded in manifests and schemas")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")

	for key, name := range map[string]string{
		keyMarker:        keyMarker,
		keyRecursive:     keyRecursive,
		keyAllowMultiple: "allow-multiple",
		keyExclude:       keyExclude,
		keyIncludeTests:  "include-tests",
		keyOutput:        keyOutput,
		keyModule:        keyModule,
		keyLogLevel:      "log-level",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(
		newScanCmd(a),
		newCheckCmd(a),
		newGenerateCmd(a),
		newManifestCmd(a),
		newSchemaCmd(a),
		newVersionCmd(),
	)
	return root
}

// init reads the configuration then sets up logging and tracing.
func (a *app) init(ctx context.Context) error {
	if err := a.readConfig(); err != nil {
		return err
	}
	logger, flush, err := logging.New(logging.Config{
		Level:  a.v.GetString(keyLogLevel),
		Format: a.v.GetString(keyLogFormat),
		File:   a.v.GetString(keyLogFile),
	})
	if err != nil {
		return err
	}
	a.logger, a.flush = logger.Named("invokectl"), flush

	if ctx == nil {
		ctx = context.Background()
	}
	a.tracer, err = tracing.Init(ctx, tracing.Config{
		ServiceName:    "invokectl",
		ServiceVersion: core.Version(),
		Endpoint:       a.v.GetString(keyTraceEndpoint),
		Insecure:       a.v.GetBool(keyTraceInsecure),
		Enabled:        a.v.GetBool(keyTraceEnabled),
	}, a.logger)
	return err
}

func (a *app) readConfig() error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	a.v.SetDefault(keyLogFormat, "console")
	a.v.SetDefault(keyTraceEndpoint, "localhost:4318")

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", a.cfgFile, err)
		}
		return nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".invokectl"))
	}
	a.v.SetConfigName("config")
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	defer a.flush()
	if a.tracer == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.tracer.Shutdown(ctx)
}

func (a *app) scanner() (*discovery.Scanner, error) {
	return discovery.NewScanner(&discovery.Config{
		MarkerName:                a.v.GetString(keyMarker),
		AllowMultiplePerComponent: a.v.GetBool(keyAllowMultiple),
		Recursive:                 a.v.GetBool(keyRecursive),
		ExcludeDirs:               a.v.GetStringSlice(keyExclude),
		IncludeTests:              a.v.GetBool(keyIncludeTests),
		Logger:                    a.logger,
	})
}

// scan scans dir, a directory or a single Go file. Declarations are returned
// together with the aggregated scan errors.
func (a *app) scan(ctx context.Context, dir string) ([]discovery.Declaration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := a.tracer.StartSpan(ctx, "scan", attribute.String("path", dir))
	defer span.End()

	scanner, err := a.scanner()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	var decls []discovery.Declaration
	if info.IsDir() {
		decls, err = scanner.ScanDir(dir)
	} else {
		decls, err = scanner.ScanFile(dir)
	}
	span.SetAttributes(attribute.Int("declarations", len(decls)))
	if err != nil {
		span.RecordError(err)
	}
	a.logger.Debug("scanned", zap.String("path", dir), zap.Int("declarations", len(decls)))
	return decls, err
}

func (a *app) output() string {
	return strings.ToLower(a.v.GetString(keyOutput))
}

func dirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
