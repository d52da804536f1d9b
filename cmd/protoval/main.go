// Command protoval is a small CLI over this module's dynamic protobuf
// runtime: it loads a FileDescriptorSet, decodes a message payload against
// a named type, and re-emits it in another wire format. It is ambient
// packaging glue around the library, not part of the hard core (pool,
// dynamic message, codec, JSON mapping), grounded on the
// spf13/cobra-style command trees seen in axonops-axonops-schema-registry's
// and openconfig-ygot's CLIs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	descriptorSetPath string
	messageName       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "protoval",
		Short: "Inspect and convert protobuf messages against a descriptor set",
		Long: `protoval loads a FileDescriptorSet (the compiled output of protoc
--descriptor_set_out, or any equivalent) and uses it to decode and
re-encode messages without generated Go types.`,
	}

	rootCmd.PersistentFlags().StringVar(&descriptorSetPath, "descriptor-set", "", "path to a binary-encoded FileDescriptorSet (required)")
	_ = rootCmd.MarkPersistentFlagRequired("descriptor-set")

	rootCmd.AddCommand(newListCmd(), newDescribeCmd(), newConvertCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "protoval:", err)
		os.Exit(1)
	}
}
