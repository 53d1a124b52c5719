package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/textres"
	"github.com/reoring/textres/codec"
)

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the resources declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.resources()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tCHARSET\tDESCRIPTION")
			for _, n := range set.Names() {
				r, _ := set.Get(n)
				cs := "auto"
				if !r.Charset().IsZero() {
					cs = r.Charset().Name()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n, r.Source().Kind(), cs, r.DisplayName())
			}
			return tw.Flush()
		},
	}
}

func newCatCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "cat [NAME...]",
		Short: "Print the text of resources in argument order",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.resources()
			if err != nil {
				return err
			}
			names := args
			if all {
				names = set.Names()
			}
			if len(names) == 0 {
				return errors.New("cat: name at least one resource or pass --all")
			}
			rs, err := a.lookup(set, names)
			if err != nil {
				return err
			}
			texts := make([]string, len(rs))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, r := range rs {
				i, r := i, r // per-iteration copies; go.mod targets Go 1.21
				g.Go(func() error {
					t, err := r.Text(ctx)
					texts[i] = t
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range texts {
				if _, err := io.WriteString(out, t); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every resource in the manifest")
	return cmd
}

func newEncodeCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "encode NAME...",
		Short: "Write the origin descriptors of resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.resources()
			if err != nil {
				return err
			}
			rs, err := a.lookup(set, args)
			if err != nil {
				return err
			}
			enc, err := newEncoder(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, r := range rs {
				if err := enc.Encode(cmd.Context(), r); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "encoding: json or binary")
	return cmd
}

func newDecodeCommand(a *app) *cobra.Command {
	var (
		format string
		text   bool
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Read encoded descriptors from stdin and describe or print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.factory()
			if err != nil {
				return err
			}
			dec, err := newDecoder(format, cmd.InOrStdin(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for {
				r, err := dec.Decode(cmd.Context())
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if !text {
					fmt.Fprintln(out, r.DisplayName())
					continue
				}
				t, err := r.Text(cmd.Context())
				if err != nil {
					return err
				}
				if _, err := io.WriteString(out, t); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "encoding: json or binary")
	cmd.Flags().BoolVar(&text, "text", false, "print the text of each resource instead of its name")
	return cmd
}

type encoder interface {
	Encode(ctx context.Context, r *textres.TextResource) error
}

type decoder interface {
	Decode(ctx context.Context) (*textres.TextResource, error)
}

func newEncoder(format string, w io.Writer) (encoder, error) {
	switch format {
	case "json":
		return codec.NewJSONEncoder(w), nil
	case "binary":
		return codec.NewBinaryEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func newDecoder(format string, r io.Reader, f *textres.Factory) (decoder, error) {
	switch format {
	case "json":
		return codec.NewJSONDecoder(r, f), nil
	case "binary":
		return codec.NewBinaryDecoder(r, f), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
