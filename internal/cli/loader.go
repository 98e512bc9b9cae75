package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cyphergremlin/internal/cache"
	"github.com/roach88/cyphergremlin/internal/config"
	"github.com/roach88/cyphergremlin/internal/facade"
	"github.com/roach88/cyphergremlin/internal/flavor"
	"github.com/roach88/cyphergremlin/internal/parser"
	"github.com/roach88/cyphergremlin/internal/procedures"
	"github.com/roach88/cyphergremlin/internal/translate"
)

// LoadError represents an error that occurred while preparing a command.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file invalid
	ErrCodeNoQuery     = "E003" // No query text given
	ErrCodeProcedures  = "E004" // Procedure signatures failed to load
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeCache       = "E006" // Cache could not be opened
	ErrCodeInvalidArgs = "E007" // Malformed parameter or flag value

	// Query errors
	ErrCodeSyntax      = "E101" // Query does not parse
	ErrCodeTranslation = "E102" // Semantic translation error
	ErrCodeUnsupported = "E103" // Construct not available on the flavor
	ErrCodeExecution   = "E104" // Executor failed
)

// Env is everything a command needs to translate queries. Close releases
// the cache and stops the procedure watcher.
type Env struct {
	Config     config.Config
	Logger     *slog.Logger
	Registry   *procedures.Registry
	Cache      cache.Cache
	Translator *facade.Translator

	watcher *procedures.Watcher
}

// LoadEnv reads the config file named by opts, loads procedure signatures
// and opens the cache. Logs go to logw.
func LoadEnv(opts *RootOptions, logw io.Writer) (*Env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", opts.Config)}
		}
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	return NewEnv(cfg, opts.Verbose, logw)
}

// NewEnv builds an Env from an already decoded config.
func NewEnv(cfg config.Config, verbose bool, logw io.Writer) (*Env, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logw, &slog.HandlerOptions{Level: level}))

	var sigs []procedures.Signature
	if cfg.Procedures != "" {
		if _, err := os.Stat(cfg.Procedures); err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("procedures directory not found: %s", cfg.Procedures)}
		}
		if sigs, err = procedures.LoadDir(cfg.Procedures); err != nil {
			return nil, &LoadError{Code: ErrCodeProcedures, Message: err.Error()}
		}
	}
	registry, err := procedures.NewRegistry(sigs...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeProcedures, Message: err.Error()}
	}

	c, err := cache.Open(cfg.CacheOptions())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCache, Message: err.Error()}
	}

	tr, err := facade.New(registry, facade.WithCache(c), facade.WithLogger(logger))
	if err != nil {
		if c != nil {
			c.Close()
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	logger.Debug("environment ready",
		"flavor", cfg.Flavor,
		"procedures", registry.Snapshot().Len(),
		"cache", cfg.Cache.Backend)

	return &Env{Config: cfg, Logger: logger, Registry: registry, Cache: c, Translator: tr}, nil
}

// Watch reloads procedure signatures when files in the configured
// directory change. It is a no-op without a procedures directory.
func (e *Env) Watch() error {
	if e.Config.Procedures == "" || e.watcher != nil {
		return nil
	}
	w, err := procedures.NewWatcher(e.Config.Procedures, e.Registry, e.Logger)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	e.watcher = w
	return nil
}

// Close stops the watcher and closes the cache.
func (e *Env) Close() error {
	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Stop())
	}
	if e.Cache != nil {
		errs = append(errs, e.Cache.Close())
	}
	return errors.Join(errs...)
}

// ReadQuery returns the query from the first argument, from file, or from
// in when the argument is "-".
func ReadQuery(args []string, file string, in io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case file != "":
		data, err = os.ReadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", file)}
		}
	case len(args) > 0 && args[0] == "-":
		data, err = io.ReadAll(in)
	case len(args) > 0:
		data = []byte(args[0])
	}
	if err != nil {
		return "", &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", &LoadError{Code: ErrCodeNoQuery, Message: "no query given"}
	}
	return q, nil
}

// ParseParams decodes key=value pairs. Values are YAML scalars or flow
// collections, so 3 is an integer, 'x' and x are strings, and [1, 2] is
// a list.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, &LoadError{Code: ErrCodeInvalidArgs, Message: fmt.Sprintf("invalid parameter %q: want key=value", p)}
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidArgs, Message: fmt.Sprintf("invalid parameter %q: %v", p, err)}
		}
		params[key] = v
	}
	return params, nil
}

// classify maps a translation error to a CLI error code and details.
func classify(err error) (string, any) {
	var (
		loadErr   *LoadError
		syntaxErr *parser.SyntaxError
		transErr  *translate.Error
	)
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code, nil
	case errors.As(err, &syntaxErr):
		return ErrCodeSyntax, map[string]int{"line": syntaxErr.Line, "column": syntaxErr.Column}
	case errors.As(err, &transErr):
		return ErrCodeTranslation, map[string]string{"kind": string(transErr.Code)}
	case flavor.IsUnsupported(err):
		return ErrCodeUnsupported, nil
	}
	return ErrCodeGeneric, nil
}

// errorMessage strips the code prefix LoadError adds.
func errorMessage(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Message
	}
	return err.Error()
}
