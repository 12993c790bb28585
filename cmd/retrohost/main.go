// Command retrohost plays content with a libretro core.
//
//	retrohost -core ./genesis_plus_gx_libretro.so -rom ./Sonic.md
//
// Without -rom a file picker is shown. Without -core the last core used is
// loaded again.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/user-none/retrohost/standalone"
)

// varFlags collects repeated -var key=value options.
type varFlags map[string]string

func (v varFlags) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, ",")
}

func (v varFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[key] = value
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	corePath := flag.String("core", "", "path to a libretro core")
	romPath := flag.String("rom", "", "path to the content to load")
	dbPath := flag.String("db", "", "libretro game database (.rdb) used to name the content")
	verbose := flag.Bool("v", false, "verbose logging")
	vars := varFlags{}
	flag.Var(vars, "var", "core option as key=value (repeatable)")
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "retrohost: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	err = standalone.Run(standalone.Options{
		CorePath:     *corePath,
		ContentPath:  *romPath,
		Variables:    vars,
		DatabasePath: *dbPath,
		Logger:       log,
	})
	switch {
	case err == nil, errors.Is(err, standalone.ErrNoContent):
	case errors.Is(err, standalone.ErrNoCore):
		fmt.Fprintln(os.Stderr, "retrohost: no core given; use -core")
		flag.Usage()
		os.Exit(2)
	default:
		log.Error("exiting", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
