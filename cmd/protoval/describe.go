package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/protoval/protoreflect/protodesc"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <message>",
		Short: "Print the fields of a message type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPool(descriptorSetPath)
			if err != nil {
				return err
			}
			md, err := findMessage(p, args[0])
			if err != nil {
				return err
			}
			fmt.Println(md.FullName())
			for _, fd := range md.Fields() {
				fmt.Printf("  %d\t%s\t%s%s\n", fd.Number(), fd.Name(), kindLabel(fd), cardinalityLabel(fd))
			}
			return nil
		},
	}
}

func kindLabel(fd *protodesc.FieldDescriptor) string {
	switch {
	case fd.IsMap():
		kfd := fd.MessageType().MapKeyField()
		vfd := fd.MessageType().MapValueField()
		return fmt.Sprintf("map<%s, %s>", kfd.Kind(), valueTypeName(vfd))
	case fd.MessageType() != nil:
		return fd.MessageType().FullName()
	case fd.EnumType() != nil:
		return fd.EnumType().FullName()
	default:
		return fd.Kind().String()
	}
}

func valueTypeName(fd *protodesc.FieldDescriptor) string {
	if fd.MessageType() != nil {
		return fd.MessageType().FullName()
	}
	if fd.EnumType() != nil {
		return fd.EnumType().FullName()
	}
	return fd.Kind().String()
}

func cardinalityLabel(fd *protodesc.FieldDescriptor) string {
	if fd.IsMap() {
		return ""
	}
	if fd.IsRepeated() {
		return " repeated"
	}
	return ""
}
