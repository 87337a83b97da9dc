// Command quarkc is a small host around the quark value-stack API: a
// stack REPL, a one-shot heap inspector, and a read-only debug server.
// It does not parse or execute ECMAScript source — that layer is out of
// this module's scope — so every command drives the engine directly
// through push/pop/property/coercion operations.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	quark "github.com/sorenby/quarkvm"
	"github.com/sorenby/quarkvm/cmd/quarkc/replui"
	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qdebug"
	"github.com/sorenby/quarkvm/internal/qlog"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qruntime"
)

var (
	debug      bool
	limitsFile string
	debugAddr  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quarkc",
		Short: "Drive the quark ECMAScript runtime core from a terminal",
		Long: `quarkc hosts the quark value-stack API directly: a REPL for
push/pop/property/coercion experimentation, a one-shot heap inspector, and a
read-only debug server for attaching external tooling.

It has no bytecode compiler or executor wired in, so there is no "run a
.js file" command; the repl subcommand operates on the stack itself.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			qlog.Init(debug)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "v", false, "verbose debug logging")
	rootCmd.PersistentFlags().StringVar(&limitsFile, "limits", "", "path to a YAML limits override file")

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive value-stack REPL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newEngineContext()
			if err != nil {
				return err
			}
			return replui.Run(ctx)
		},
	}
	rootCmd.AddCommand(replCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a fresh heap's allocation/GC counters and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := newEngineContext()
			if err != nil {
				return err
			}
			st := ctx.Heap.Stats()
			fmt.Printf("allocated=%d gc_cycles=%d freed=%d finalized=%d refzero_freed=%d\n",
				st.Allocated, st.GCCycles, st.Freed, st.Finalized, st.RefzeroFreed)
			return nil
		},
	}
	rootCmd.AddCommand(inspectCmd)

	debugServeCmd := &cobra.Command{
		Use:   "debug-serve",
		Short: "Serve the read-only HeapStats/DumpCallStack/DumpObject RPCs over h2c",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebugServe()
		},
	}
	debugServeCmd.Flags().StringVar(&debugAddr, "addr", "localhost:7331", "listen address")
	rootCmd.AddCommand(debugServeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newEngineContext builds a fresh engine, loading limitsFile over the
// defaults if one was given.
func newEngineContext() (*quark.Context, error) {
	limits := qruntime.Defaults()
	if limitsFile != "" {
		loaded, err := qruntime.Load(limitsFile)
		if err != nil {
			return nil, err
		}
		limits = loaded
	}
	return quark.New(limits), nil
}

// runDebugServe wires a fresh engine's heap, string table, and thread into
// a qdebug.Service and serves it until interrupted. No object has an id
// assigned yet in this standalone command, so DumpObject always answers
// not-found; a host embedding qdebug alongside a live engine would supply
// an ObjectLookup backed by its own id-assignment policy instead.
func runDebugServe() error {
	ctx, err := newEngineContext()
	if err != nil {
		return err
	}

	threads := func() []*qcall.Thread { return []*qcall.Thread{ctx.Thread} }
	lookup := func(id string) (*qobject.Object, bool) { return nil, false }
	svc := qdebug.NewService(ctx.Heap, ctx.Strings, threads, lookup)
	srv := qdebug.NewServer(debugAddr, svc)

	qlog.L.Sugar().Infof("debug-serve listening on %s", debugAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
