package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/protoval/protoreflect/protodesc"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every message type in the loaded pool, including the well-known types",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPool(descriptorSetPath)
			if err != nil {
				return err
			}
			var names []string
			p.RangeFiles(func(fd *protodesc.FileDescriptor) bool {
				collectMessageNames(fd.Messages(), &names)
				return true
			})
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func collectMessageNames(msgs []*protodesc.MessageDescriptor, out *[]string) {
	for _, md := range msgs {
		*out = append(*out, md.FullName())
		collectMessageNames(md.NestedMessages(), out)
	}
}
