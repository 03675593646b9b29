package main

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Qthai16/go-murmur3/service"
	"github.com/Qthai16/go-murmur3/utils/hashkit"
)

const defaultChunk = 64 * 1024

var errSomeFailed = errors.New("some inputs could not be hashed")

type options struct {
	algo string
	seed string
}

type inputOptions struct {
	chunk   int
	workers int
	table   bool
}

func (o *options) builder() (hashkit.BuildHasher, error) {
	factory, err := hashkit.LookupAlgorithm(o.algo)
	if err != nil {
		return nil, err
	}
	src, err := hashkit.ParseSeed(o.seed)
	if err != nil {
		return nil, err
	}
	return factory(src), nil
}

func (o *inputOptions) validate() error {
	if o.chunk <= 0 {
		return fmt.Errorf("invalid chunk size %d", o.chunk)
	}
	if o.workers <= 0 {
		return fmt.Errorf("invalid worker count %d", o.workers)
	}
	return nil
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "murmur3",
		Short:         "MurmurHash3 x86_32 checksums",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.algo, "algo", hashkit.DefaultAlgorithm,
		"hash algorithm: "+strings.Join(hashkit.Algorithms(), ", "))
	root.PersistentFlags().StringVar(&opts.seed, "seed", "0", `32-bit seed, or "random"`)
	root.AddCommand(newSumCmd(fs, opts), newStrCmd(opts), newRemoteCmd(fs))
	return root
}

func inputNames(args []string) []string {
	if len(args) == 0 {
		return []string{stdinName}
	}
	return args
}

func newSumCmd(fs afero.Fs, opts *options) *cobra.Command {
	in := &inputOptions{}
	cmd := &cobra.Command{
		Use:   "sum [files...]",
		Short: "Hash files, or stdin when no file is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			builder, err := opts.builder()
			if err != nil {
				return err
			}
			results, err := hashFiles(fs, cmd.InOrStdin(), builder, inputNames(args), in.chunk, in.workers)
			if err != nil {
				return err
			}
			return printSums(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, in.table)
		},
	}
	cmd.Flags().IntVar(&in.chunk, "chunk", defaultChunk, "read size per write")
	cmd.Flags().IntVar(&in.workers, "workers", runtime.NumCPU(), "files hashed in parallel")
	cmd.Flags().BoolVar(&in.table, "table", false, "print a table")
	return cmd
}

func newStrCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "str [strings...]",
		Short: "Hash the argument strings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, err := opts.builder()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range args {
				fmt.Fprintf(out, "%08x  %s\n", hashkit.HashString(builder, s), strconv.Quote(s))
			}
			return nil
		},
	}
}

func newRemoteCmd(fs afero.Fs) *cobra.Command {
	in := &inputOptions{}
	var (
		addr      string
		showStats bool
	)
	cmd := &cobra.Command{
		Use:   "remote [files...]",
		Short: "Hash files on a murmur3d server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			client, err := service.NewClient(addr)
			if err != nil {
				return err
			}
			defer client.Close()
			results, err := hashRemote(cmd.Context(), client, fs, cmd.InOrStdin(), inputNames(args), in.chunk, in.workers)
			if err != nil {
				return err
			}
			if err = printSums(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, in.table); err != nil {
				return err
			}
			if showStats {
				st, err := client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), st)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:18000", "server address")
	cmd.Flags().IntVar(&in.chunk, "chunk", defaultChunk, "bytes per write call")
	cmd.Flags().IntVar(&in.workers, "workers", 4, "concurrent streams")
	cmd.Flags().BoolVar(&in.table, "table", false, "print a table")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print server stats afterwards")
	return cmd
}

// printSums writes one "<hash>  <name>" line per file, or a table. Failed
// files go to errOut.
func printSums(out, errOut io.Writer, results []fileSum, table bool) error {
	failed := false
	var tw *tablewriter.Table
	if table {
		tw = tablewriter.NewWriter(out)
		tw.SetHeader([]string{"File", "Size", "Hash"})
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
	}
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Fprintf(errOut, "murmur3: %v: %v\n", r.Name, r.Err)
			continue
		}
		sum := fmt.Sprintf("%08x", r.Sum)
		if tw != nil {
			tw.Append([]string{r.Name, strconv.FormatInt(r.Size, 10), sum})
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", sum, r.Name)
	}
	if tw != nil {
		tw.Render()
	}
	if failed {
		return errSomeFailed
	}
	return nil
}
