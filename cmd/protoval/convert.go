package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/protoval/protoreflect/dynamic"
)

func newConvertCmd() *cobra.Command {
	var (
		from            string
		to              string
		inPath          string
		outPath         string
		emitUnpopulated bool
		useProtoNames   bool
		discardUnknown  bool
	)

	cmd := &cobra.Command{
		Use:   "convert <message>",
		Short: "Decode a payload against a message type and re-encode it in another format",
		Long: `convert reads a message payload in one wire format (binary or json) and
writes the equivalent payload in another, using only the named message's
descriptor - no generated Go type is involved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if from != "binary" && from != "json" {
				return fmt.Errorf("--from must be %q or %q, got %q", "binary", "json", from)
			}
			if to != "binary" && to != "json" {
				return fmt.Errorf("--to must be %q or %q, got %q", "binary", "json", to)
			}

			p, err := loadPool(descriptorSetPath)
			if err != nil {
				return err
			}
			md, err := findMessage(p, args[0])
			if err != nil {
				return err
			}

			in, err := openInput(inPath)
			if err != nil {
				return err
			}
			defer in.Close()
			payload, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			msg := dynamic.NewMessage(md)
			switch from {
			case "binary":
				if err := dynamic.Unmarshal(payload, msg); err != nil {
					return fmt.Errorf("decoding binary payload: %w", err)
				}
			case "json":
				opts := dynamic.UnmarshalOptions{DiscardUnknown: discardUnknown, Resolver: p}
				if err := opts.Unmarshal(payload, msg); err != nil {
					return fmt.Errorf("decoding json payload: %w", err)
				}
			}

			var out []byte
			switch to {
			case "binary":
				out, err = dynamic.Marshal(msg)
				if err != nil {
					return fmt.Errorf("encoding binary payload: %w", err)
				}
			case "json":
				opts := dynamic.MarshalOptions{EmitUnpopulated: emitUnpopulated, UseProtoNames: useProtoNames, Resolver: p}
				out, err = opts.Marshal(msg)
				if err != nil {
					return fmt.Errorf("encoding json payload: %w", err)
				}
				out = append(out, '\n')
			}

			w, err := openOutput(outPath)
			if err != nil {
				return err
			}
			defer w.Close()
			_, err = w.Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "binary", `source format: "binary" or "json"`)
	cmd.Flags().StringVar(&to, "to", "json", `target format: "binary" or "json"`)
	cmd.Flags().StringVar(&inPath, "in", "-", "input file, or - for stdin")
	cmd.Flags().StringVar(&outPath, "out", "-", "output file, or - for stdout")
	cmd.Flags().BoolVar(&emitUnpopulated, "emit-unpopulated", false, "include unpopulated fields when writing json")
	cmd.Flags().BoolVar(&useProtoNames, "use-proto-names", false, "use declared field names instead of camelCase when writing json")
	cmd.Flags().BoolVar(&discardUnknown, "discard-unknown", false, "ignore unrecognized json object keys instead of erroring")
	return cmd
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
