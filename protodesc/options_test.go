package protodesc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"
)

// TestCustomOptionResolvesAcrossImportedFile builds a minimal stand-in for
// google.protobuf.MessageOptions plus an extension field declared in a
// separate, imported file, then applies that custom option from a third
// file. The extension is never visible in the options-using file's own
// symbol table, only in its (transitive) import - the case that requires
// pool-wide resolution rather than file-scoped resolution.
func TestCustomOptionResolvesAcrossImportedFile(t *testing.T) {
	syntax := "proto3"

	descriptorFile := &descriptorpb.FileDescriptorProto{
		Name:    strPtr("fake/descriptor.proto"),
		Package: strPtr("google.protobuf"),
		Syntax:  &syntax,
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strPtr("MessageOptions"),
				ExtensionRange: []*descriptorpb.DescriptorProto_ExtensionRange{
					{Start: i32Ptr(1000), End: i32Ptr(536870912)},
				},
			},
		},
	}

	extFile := &descriptorpb.FileDescriptorProto{
		Name:       strPtr("my/ext.proto"),
		Package:    strPtr("my.pkg"),
		Syntax:     &syntax,
		Dependency: []string{"fake/descriptor.proto"},
		Extension: []*descriptorpb.FieldDescriptorProto{
			{
				Name:     strPtr("my_flag"),
				Number:   i32Ptr(50000),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				Extendee: strPtr(".google.protobuf.MessageOptions"),
				JsonName: strPtr("myFlag"),
			},
		},
	}

	mainFile := &descriptorpb.FileDescriptorProto{
		Name:       strPtr("my/main.proto"),
		Package:    strPtr("my.pkg"),
		Syntax:     &syntax,
		Dependency: []string{"my/ext.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strPtr("Widget"),
				Options: &descriptorpb.MessageOptions{
					UninterpretedOption: []*descriptorpb.UninterpretedOption{
						{
							Name: []*descriptorpb.UninterpretedOption_NamePart{
								{NamePart: strPtr("my_flag"), IsExtension: boolPtr(true)},
							},
							IdentifierValue: strPtr("true"),
						},
					},
				},
			},
		},
	}

	p := NewPool()
	_, err := p.AddFiles([]*descriptorpb.FileDescriptorProto{descriptorFile, extFile, mainFile})
	require.NoError(t, err)

	widget := p.FindMessage("my.pkg.Widget")
	require.NotNil(t, widget)

	v, ok := widget.CustomOption("my.pkg.my_flag")
	require.True(t, ok, "expected the cross-file custom option to resolve")
	require.Equal(t, true, v)
}

func boolPtr(b bool) *bool { return &b }
